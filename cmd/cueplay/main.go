// SPDX-License-Identifier: EPL-2.0

// Command cueplay triggers one or more overlapping instances of a sound
// file, either on the audio device or rendered offline to a WAV file.
//
//	cueplay -voices 4 -stagger 150ms -pan -0.5 shot.wav
//	cueplay -loops 2 -speed 0.5 -out slow.wav loop.ogg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audcue"
	"github.com/ik5/audcue/cue"
	"github.com/ik5/audcue/formats/wav"
	"github.com/ik5/audcue/sink/otosink"
	"github.com/ik5/audcue/utils"
)

type config struct {
	path         string
	out          string
	volume       float64
	pan          float64
	speed        float64
	loops        int
	voices       int
	stagger      time.Duration
	maxDuration  time.Duration
	bufferFrames int
	rate         int
	panType      cue.PanType
}

func main() {
	os.Exit(run(os.Args, logrus.StandardLogger()))
}

// run returns the process exit code so deferred cleanup happens before exit.
func run(args []string, logger *logrus.Logger) int {
	var (
		cfg     config
		panLaw  string
		verbose bool
	)

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.Float64Var(&cfg.volume, "volume", 1, "instance volume, 0 to 1")
	fs.Float64Var(&cfg.pan, "pan", 0, "pan, -1 left to 1 right")
	fs.Float64Var(&cfg.speed, "speed", 1, "playback speed multiplier")
	fs.IntVar(&cfg.loops, "loops", 0, "extra passes per voice, -1 loops until -max")
	fs.IntVar(&cfg.voices, "voices", 1, "number of instances to trigger")
	fs.DurationVar(&cfg.stagger, "stagger", 100*time.Millisecond, "delay between voices")
	fs.DurationVar(&cfg.maxDuration, "max", 30*time.Second, "stop after this long")
	fs.IntVar(&cfg.bufferFrames, "buffer", cue.DefaultBufferFrames, "frames rendered per tick")
	fs.IntVar(&cfg.rate, "rate", 48000, "output sample rate in Hz, 0 keeps the file rate")
	fs.StringVar(&cfg.out, "out", "", "render to this WAV file instead of the audio device")
	fs.StringVar(&panLaw, "pan-law", cue.PanCutLinear.String(), "pan law: cut-linear, linear or circular")
	fs.BoolVar(&verbose, "v", false, "debug logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] <file.{wav|aiff|mp3|ogg}>\n", args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	cfg.path = fs.Arg(0)

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	log := logger.WithFields(logrus.Fields{"app": "cueplay", "file": cfg.path})

	var err error
	cfg.panType, err = parsePanType(panLaw)
	if err != nil {
		log.WithError(err).Error("bad flags")
		return 2
	}
	if cfg.voices < 1 || cfg.bufferFrames < 1 || cfg.rate < 0 {
		log.Error("bad flags: -voices and -buffer must be at least 1, -rate not negative")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.out != "" {
		err = bounce(cfg, log)
	} else {
		err = play(ctx, cfg, log)
	}
	if err != nil {
		log.WithError(err).Error("cueplay failed")
		return 1
	}

	return 0
}

func parsePanType(name string) (cue.PanType, error) {
	for _, t := range []cue.PanType{cue.PanCutLinear, cue.PanLinear, cue.PanCircular} {
		if t.String() == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown pan law %q", name)
}

func options(cfg config, log *logrus.Entry) *cue.Options {
	opts := cue.NewOptions()
	opts.BufferFrames = cfg.bufferFrames
	opts.PanType = cfg.panType
	opts.SampleRate = cfg.rate
	opts.Logger = log

	return opts
}

func trigger(c *cue.Cue, cfg config) (int, error) {
	id, err := c.Play(cfg.volume, cfg.pan, cfg.speed, cfg.loops)
	if err != nil {
		return cue.NoInstance, err
	}
	if id == cue.NoInstance {
		return cue.NoInstance, errors.New("no free instance")
	}

	return id, nil
}

// play renders in real time and returns once every voice has finished.
func play(ctx context.Context, cfg config, log *logrus.Entry) error {
	opts := options(cfg, log)
	opts.Sink = otosink.New()

	c, err := audcue.LoadFile(cfg.path, cfg.voices, opts)
	if err != nil {
		return err
	}
	defer c.Dispose()

	finished := make(chan struct{}, cfg.voices)
	c.AddListener(&cue.ListenerFuncs{
		Instance: func(e cue.InstanceEvent) {
			log.WithFields(logrus.Fields{
				"event":    e.Type,
				"instance": e.Instance,
				"frame":    e.Frame,
			}).Debug("instance event")

			if e.Type == cue.ReleaseInstance {
				finished <- struct{}{}
			}
		},
	})

	if err := c.Open(); err != nil {
		return err
	}

	deadline := time.After(cfg.maxDuration)
	for i := range cfg.voices {
		if i > 0 {
			select {
			case <-time.After(cfg.stagger):
			case <-ctx.Done():
				return c.Close()
			case <-deadline:
				return c.Close()
			}
		}
		if _, err := trigger(c, cfg); err != nil {
			return errors.Join(err, c.Close())
		}
	}

	for range cfg.voices {
		select {
		case <-finished:
		case <-ctx.Done():
			return c.Close()
		case <-deadline:
			return c.Close()
		}
	}

	if err := c.Close(); err != nil {
		return err
	}

	return c.Err()
}

// bounce renders offline, as fast as possible, into a 16-bit WAV file.
func bounce(cfg config, log *logrus.Entry) error {
	c, err := audcue.LoadFile(cfg.path, cfg.voices, options(cfg, log))
	if err != nil {
		return err
	}
	defer c.Dispose()

	rate := c.Buffer().SampleRate()
	staggerFrames := int(cfg.stagger.Seconds() * float64(rate))
	maxFrames := int(cfg.maxDuration.Seconds() * float64(rate))

	var (
		mixed []float32
		ids   []int
		block = make([]float32, cfg.bufferFrames*2)
	)
	for frame := 0; frame < maxFrames; frame += cfg.bufferFrames {
		for len(ids) < cfg.voices && frame >= len(ids)*staggerFrames {
			id, err := trigger(c, cfg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if len(ids) == cfg.voices && !anyPlaying(c, ids) {
			break
		}

		if _, err := c.Mix(block); err != nil {
			return err
		}
		mixed = append(mixed, block...)
	}

	pcm := make([]int16, len(mixed))
	utils.Float32sToInt16s(pcm, mixed)

	f, err := os.Create(cfg.out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := wav.WriteWAV16(f, rate, 2, pcm); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"out":    cfg.out,
		"frames": len(mixed) / 2,
	}).Info("bounced")

	return f.Close()
}

func anyPlaying(c *cue.Cue, ids []int) bool {
	for _, id := range ids {
		if c.IsPlaying(id) {
			return true
		}
	}

	return false
}

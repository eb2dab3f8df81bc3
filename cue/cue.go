// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	engineClosed int32 = iota
	engineOpening
	engineOpen
	engineClosing
	engineMixing
)

// Cue plays one Buffer through a fixed number of concurrent instances.
//
// All methods are safe for concurrent use. Listener callbacks run on a
// dedicated goroutine.
type Cue struct {
	buf     *Buffer
	pool    *pool
	events  *dispatcher
	opts    Options
	log     *logrus.Entry
	panType atomic.Int32

	nameMu sync.RWMutex
	name   string

	state    atomic.Int32
	disposed atomic.Bool

	// Render resources, valid while open.
	bufferFrames int
	stop         chan struct{}
	done         chan struct{}

	errMu sync.Mutex
	err   error
}

// New creates a cue with polyphony preallocated instances. opts may be nil.
// When opts.SampleRate is set the buffer is resampled to it.
func New(name string, buf *Buffer, polyphony int, opts *Options) (*Cue, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}
	if polyphony < 1 {
		return nil, fmt.Errorf("%w: polyphony %d", ErrInvalidArgument, polyphony)
	}

	o := opts.withDefaults()
	log := o.Logger.WithFields(logrus.Fields{"cue": name})

	buf, err := buf.Resample(o.SampleRate)
	if err != nil {
		return nil, err
	}

	c := &Cue{
		buf:    buf,
		pool:   newPool(polyphony),
		events: newDispatcher(o.EventQueueSize, log),
		opts:   o,
		log:    log,
		name:   name,
	}
	c.panType.Store(int32(o.PanType))

	log.WithFields(logrus.Fields{
		"function":  "New",
		"polyphony": polyphony,
		"frames":    buf.FrameLength(),
		"rate":      buf.SampleRate(),
		"channels":  buf.Channels(),
	}).Debug("cue created")

	return c, nil
}

func (c *Cue) Name() string {
	c.nameMu.RLock()
	defer c.nameMu.RUnlock()

	return c.name
}

func (c *Cue) SetName(name string) {
	c.nameMu.Lock()
	defer c.nameMu.Unlock()

	c.name = name
}

func (c *Cue) Buffer() *Buffer           { return c.buf }
func (c *Cue) Polyphony() int            { return len(c.pool.slots) }
func (c *Cue) FrameLength() int          { return c.buf.FrameLength() }
func (c *Cue) MicrosecondLength() int64  { return c.buf.MicrosecondLength() }
func (c *Cue) IsOpen() bool              { return c.state.Load() == engineOpen }
func (c *Cue) PanType() PanType          { return PanType(c.panType.Load()) }
func (c *Cue) DroppedEvents() uint64     { return c.events.dropped.Load() }
func (c *Cue) AddListener(l Listener)    { c.events.add(l) }
func (c *Cue) RemoveListener(l Listener) { c.events.remove(l) }

// SetPanType changes the pan law for every instance from the next tick.
func (c *Cue) SetPanType(t PanType) error {
	if !t.valid() {
		return fmt.Errorf("%w: pan type %v", ErrInvalidArgument, t)
	}
	c.panType.Store(int32(t))

	return nil
}

// Err returns the sink error that stopped the render loop, if any.
func (c *Cue) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	return c.err
}

func (c *Cue) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	c.err = err
}

// Open starts rendering with the configured buffer size.
func (c *Cue) Open() error {
	return c.OpenWithBufferSize(c.opts.BufferFrames)
}

// OpenWithBufferSize opens the sink and starts the render goroutine. It
// fails with ErrIllegalState unless the cue is closed.
func (c *Cue) OpenWithBufferSize(frames int) error {
	if frames <= 0 {
		return fmt.Errorf("%w: buffer size %d", ErrInvalidArgument, frames)
	}
	if c.disposed.Load() {
		return fmt.Errorf("%w: cue %q is disposed", ErrIllegalState, c.Name())
	}
	if !c.state.CompareAndSwap(engineClosed, engineOpening) {
		return fmt.Errorf("%w: cue %q is not closed", ErrIllegalState, c.Name())
	}

	sink := c.opts.Sink
	if err := sink.Open(c.buf.SampleRate(), outputChannels, frames); err != nil {
		c.state.Store(engineClosed)
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	c.bufferFrames = frames
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.setErr(nil)

	go c.renderLoop(sink, make([]float32, frames*outputChannels), c.stop, c.done)

	c.state.Store(engineOpen)

	c.log.WithFields(logrus.Fields{
		"function":      "Open",
		"buffer_frames": frames,
		"rate":          c.buf.SampleRate(),
	}).Info("cue opened")

	c.events.post(envelope{kind: kindOpened, lifecycle: c.lifecycle()})

	return nil
}

// Close stops the render goroutine and closes the sink. No tick runs after
// Close returns.
func (c *Cue) Close() error {
	if !c.state.CompareAndSwap(engineOpen, engineClosing) {
		return fmt.Errorf("%w: cue %q is not open", ErrIllegalState, c.Name())
	}

	close(c.stop)
	err := c.opts.Sink.Close()
	<-c.done

	c.state.Store(engineClosed)

	c.log.WithFields(logrus.Fields{
		"function": "Close",
	}).Info("cue closed")

	c.events.post(envelope{kind: kindClosed, lifecycle: c.lifecycle()})

	if err != nil {
		return fmt.Errorf("closing sink: %w", err)
	}

	return nil
}

// Dispose closes the cue if needed and stops event delivery after pending
// events are delivered. A disposed cue cannot be reopened. Dispose must not
// be called from a listener.
func (c *Cue) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if c.state.Load() == engineOpen {
		err = c.Close()
	}
	c.events.stop()

	return err
}

func (c *Cue) lifecycle() LifecycleEvent {
	return LifecycleEvent{
		Time:         time.Now(),
		Priority:     c.opts.Priority,
		BufferFrames: c.bufferFrames,
		Source:       c,
	}
}

// Mix renders one block into dst, interleaved stereo, without a sink. It is
// only allowed while the cue is closed and returns the frames rendered.
func (c *Cue) Mix(dst []float32) (int, error) {
	if len(dst)%outputChannels != 0 {
		return 0, fmt.Errorf("%w: %d samples is not a whole number of stereo frames",
			ErrInvalidArgument, len(dst))
	}
	if !c.state.CompareAndSwap(engineClosed, engineMixing) {
		return 0, fmt.Errorf("%w: cue %q is not closed", ErrIllegalState, c.Name())
	}
	defer c.state.Store(engineClosed)

	c.renderBlock(dst)

	return len(dst) / outputChannels, nil
}

func (c *Cue) raise(t EventType, id, frame int) {
	c.events.post(envelope{
		kind: kindInstance,
		instance: InstanceEvent{
			Type:     t,
			Time:     time.Now(),
			Instance: id,
			Frame:    frame,
			Source:   c,
		},
	})
}

// ObtainInstance reserves the lowest free instance with default settings,
// paused at frame 0. It returns NoInstance when none is free.
func (c *Cue) ObtainInstance() int {
	id := c.pool.obtain()
	if id == NoInstance {
		c.log.WithFields(logrus.Fields{
			"function": "ObtainInstance",
		}).Debug("no free instance")
		return NoInstance
	}

	c.raise(ObtainInstance, id, 0)

	return id
}

// ReleaseInstance stops id and returns it to the pool.
func (c *Cue) ReleaseInstance(id int) error {
	if _, err := c.pool.get(id); err != nil {
		return err
	}
	if !c.pool.release(id) {
		return fmt.Errorf("%w: id %d is not obtained", ErrInvalidInstance, id)
	}

	c.raise(ReleaseInstance, id, 0)

	return nil
}

// Play obtains an instance, configures it and starts it. The instance is
// released automatically when it finishes. It returns NoInstance when the
// pool is exhausted.
func (c *Cue) Play(volume, pan, speed float64, loops int) (int, error) {
	if math.IsNaN(volume) || math.IsNaN(pan) {
		return NoInstance, fmt.Errorf("%w: volume %v, pan %v", ErrInvalidArgument, volume, pan)
	}
	if err := checkSpeed(speed); err != nil {
		return NoInstance, err
	}
	if loops < -1 {
		return NoInstance, fmt.Errorf("%w: loops %d", ErrInvalidArgument, loops)
	}

	id := c.ObtainInstance()
	if id == NoInstance {
		return NoInstance, nil
	}

	in := &c.pool.slots[id]
	in.volume.Store(clamp(volume, 0, 1))
	in.pan.Store(clamp(pan, -1, 1))
	in.speed.Store(speed)
	in.loops.Store(int64(loops))
	in.recycle.Store(true)

	if err := c.Start(id); err != nil {
		return NoInstance, err
	}

	return id, nil
}

// PlayVolume plays once, centered at normal speed.
func (c *Cue) PlayVolume(volume float64) (int, error) {
	return c.Play(volume, 0, 1, 0)
}

// Start resumes id from its current position. Starting a finished
// instance makes it active again.
func (c *Cue) Start(id int) error {
	frame, started, err := c.pool.start(id)
	if err != nil {
		return err
	}
	if started {
		c.raise(StartInstance, id, frame)
	}

	return nil
}

// Stop pauses id, keeping its position. A tick in flight does not move it
// past the frame reported in the stop event.
func (c *Cue) Stop(id int) error {
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}

	in.mu.Lock()
	stopped := in.playing.CompareAndSwap(true, false)
	if stopped {
		in.seq.Add(1)
	}
	frame := int(in.pos.Load())
	in.mu.Unlock()

	if stopped {
		c.raise(StopInstance, id, frame)
	}

	return nil
}

// SetLooping sets how many more times id wraps to the start: -1 forever,
// 0 never.
func (c *Cue) SetLooping(id, loops int) error {
	if loops < -1 {
		return fmt.Errorf("%w: loops %d", ErrInvalidArgument, loops)
	}
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}
	in.loops.Store(int64(loops))

	return nil
}

func (c *Cue) SetSpeed(id int, speed float64) error {
	if err := checkSpeed(speed); err != nil {
		return err
	}
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}
	in.speed.Store(speed)

	return nil
}

// SetVolume clamps volume to [0, 1].
func (c *Cue) SetVolume(id int, volume float64) error {
	if math.IsNaN(volume) {
		return fmt.Errorf("%w: volume NaN", ErrInvalidArgument)
	}
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}
	in.volume.Store(clamp(volume, 0, 1))

	return nil
}

// SetPan clamps pan to [-1, 1].
func (c *Cue) SetPan(id int, pan float64) error {
	if math.IsNaN(pan) {
		return fmt.Errorf("%w: pan NaN", ErrInvalidArgument)
	}
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}
	in.pan.Store(clamp(pan, -1, 1))

	return nil
}

func (c *Cue) SetRecycleWhenDone(id int, recycle bool) error {
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}
	in.recycle.Store(recycle)

	return nil
}

func (c *Cue) SetFramePosition(id, frame int) error {
	return c.setPosition(id, float64(frame))
}

// SetFractionalPosition moves id to fraction of the last frame index.
func (c *Cue) SetFractionalPosition(id int, fraction float64) error {
	if math.IsNaN(fraction) {
		return fmt.Errorf("%w: fraction NaN", ErrInvalidArgument)
	}
	return c.setPosition(id, fraction*c.buf.lastFrame())
}

func (c *Cue) SetMillisecondPosition(id, ms int) error {
	return c.setPosition(id, c.buf.millisToFrame(ms))
}

func (c *Cue) setPosition(id int, pos float64) error {
	in, err := c.pool.get(id)
	if err != nil {
		return err
	}

	in.mu.Lock()
	in.pos.Store(c.buf.clampPosition(pos))
	in.seq.Add(1)
	in.mu.Unlock()

	return nil
}

// FramePosition returns the whole frame id is at.
func (c *Cue) FramePosition(id int) (int, error) {
	in, err := c.pool.get(id)
	if err != nil {
		return 0, err
	}

	return int(math.Floor(in.pos.Load())), nil
}

// IsPlaying is false for invalid ids.
func (c *Cue) IsPlaying(id int) bool {
	in, err := c.pool.get(id)
	return err == nil && in.playing.Load()
}

// IsActive reports whether id is obtained and has not reached its end.
func (c *Cue) IsActive(id int) bool {
	in, err := c.pool.get(id)
	return err == nil && in.loadState() == stateActive
}

func (c *Cue) Volume(id int) (float64, error) {
	in, err := c.pool.get(id)
	if err != nil {
		return 0, err
	}
	return in.volume.Load(), nil
}

func (c *Cue) Pan(id int) (float64, error) {
	in, err := c.pool.get(id)
	if err != nil {
		return 0, err
	}
	return in.pan.Load(), nil
}

func (c *Cue) Speed(id int) (float64, error) {
	in, err := c.pool.get(id)
	if err != nil {
		return 0, err
	}
	return in.speed.Load(), nil
}

func (c *Cue) Looping(id int) (int, error) {
	in, err := c.pool.get(id)
	if err != nil {
		return 0, err
	}
	return int(in.loops.Load()), nil
}

func checkSpeed(speed float64) error {
	if !(speed > 0) || math.IsInf(speed, 1) {
		return fmt.Errorf("%w: speed %v", ErrInvalidArgument, speed)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

//go:build !headless

// SPDX-License-Identifier: EPL-2.0

package otosink

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/audcue/cue"
)

var _ cue.Sink = (*Sink)(nil)

var device struct {
	mu       sync.Mutex
	ctx      *oto.Context
	rate     int
	channels int
}

func deviceContext(sampleRate, channels int) (*oto.Context, error) {
	device.mu.Lock()
	defer device.mu.Unlock()

	if device.ctx != nil {
		if device.rate != sampleRate || device.channels != channels {
			return nil, fmt.Errorf("%w: device runs at %d Hz, %d channels",
				ErrUnavailable, device.rate, device.channels)
		}
		return device.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	<-ready

	device.ctx = ctx
	device.rate = sampleRate
	device.channels = channels

	return ctx, nil
}

// Sink streams blocks to an oto player through a pipe. Write returns once
// the player has taken the block, which paces the render goroutine to the
// device.
type Sink struct {
	mu     sync.Mutex
	player *oto.Player
	pw     *io.PipeWriter

	scratch []byte
}

func New() *Sink { return &Sink{} }

func (s *Sink) Open(sampleRate, channels, bufferFrames int) error {
	ctx, err := deviceContext(sampleRate, channels)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return fmt.Errorf("%w: sink already open", ErrUnavailable)
	}

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.SetBufferSize(bufferFrames * channels * bytesPerSample)
	player.Play()

	s.player = player
	s.pw = pw
	s.scratch = make([]byte, bufferFrames*channels*bytesPerSample)

	return nil
}

func (s *Sink) Write(samples []float32) error {
	s.mu.Lock()
	pw := s.pw
	s.mu.Unlock()

	if pw == nil {
		return cue.ErrSinkClosed
	}

	s.scratch = encodeFloat32LE(s.scratch, samples)
	if _, err := pw.Write(s.scratch); err != nil {
		return fmt.Errorf("writing to player: %w", err)
	}

	return nil
}

// Close unblocks a pending Write and stops the player.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return nil
	}

	s.pw.CloseWithError(cue.ErrSinkClosed)
	err := s.player.Close()
	s.player = nil
	s.pw = nil

	return err
}

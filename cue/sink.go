// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"fmt"
	"sync"
	"time"
)

// outputChannels is fixed: the mixer always renders interleaved stereo.
const outputChannels = 2

// Sink consumes rendered blocks on the render goroutine.
//
// Write paces the mixer: it blocks until the block can be accepted. Close
// may be called while Write is blocked and must make it return.
type Sink interface {
	Open(sampleRate, channels, bufferFrames int) error
	Write(samples []float32) error
	Close() error
}

// ClockSink discards audio but paces Write to real time. It stands in for a
// device when none is needed.
type ClockSink struct {
	mu     sync.Mutex
	ticker *time.Ticker
	closed chan struct{}
}

func NewClockSink() *ClockSink { return &ClockSink{} }

func (s *ClockSink) Open(sampleRate, channels, bufferFrames int) error {
	if sampleRate <= 0 || bufferFrames <= 0 {
		return fmt.Errorf("clock sink: rate %d, %d frames", sampleRate, bufferFrames)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	period := time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)
	s.ticker = time.NewTicker(max(period, time.Microsecond))
	s.closed = make(chan struct{})

	return nil
}

func (s *ClockSink) Write([]float32) error {
	s.mu.Lock()
	ticker, closed := s.ticker, s.closed
	s.mu.Unlock()

	if ticker == nil {
		return ErrSinkClosed
	}

	select {
	case <-ticker.C:
		return nil
	case <-closed:
		return ErrSinkClosed
	}
}

func (s *ClockSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return nil
	}

	s.ticker.Stop()
	close(s.closed)
	s.ticker = nil

	return nil
}

// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/ik5/audcue/cue"
	"github.com/ik5/audcue/formats/wav"
	"github.com/ik5/audcue/utils"
)

var _ cue.Sink = (*Recorder)(nil)

// Recorder captures rendered audio in memory. Once maxFrames frames are
// held, Write blocks until Close, which stalls the render goroutine instead
// of letting it spin.
type Recorder struct {
	maxFrames int

	mu         sync.Mutex
	samples    []float32
	sampleRate int
	channels   int
	full       chan struct{}
	closed     chan struct{}
	closeOnce  *sync.Once
}

func NewRecorder(maxFrames int) *Recorder {
	return &Recorder{
		maxFrames: maxFrames,
		full:      make(chan struct{}),
		closed:    make(chan struct{}),
		closeOnce: &sync.Once{},
	}
}

// Open discards anything recorded before.
func (r *Recorder) Open(sampleRate, channels, bufferFrames int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("recorder: rate %d, %d channels", sampleRate, channels)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sampleRate = sampleRate
	r.channels = channels
	r.samples = make([]float32, 0, r.maxFrames*channels)
	r.full = make(chan struct{})
	r.closed = make(chan struct{})
	r.closeOnce = &sync.Once{}

	if r.maxFrames <= 0 {
		close(r.full)
	}

	return nil
}

func (r *Recorder) Write(samples []float32) error {
	r.mu.Lock()
	limit := r.maxFrames * r.channels
	if r.channels == 0 || len(r.samples) >= limit {
		closed := r.closed
		r.mu.Unlock()

		<-closed
		return cue.ErrSinkClosed
	}

	n := min(len(samples), limit-len(r.samples))
	r.samples = append(r.samples, samples[:n]...)
	if len(r.samples) == limit {
		close(r.full)
	}
	r.mu.Unlock()

	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	closed := r.closed
	once := r.closeOnce
	r.mu.Unlock()

	once.Do(func() { close(closed) })

	return nil
}

// Full is closed once maxFrames frames have been captured.
func (r *Recorder) Full() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.full
}

// Samples returns a copy of the interleaved capture.
func (r *Recorder) Samples() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, len(r.samples))
	copy(out, r.samples)

	return out
}

func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channels == 0 {
		return 0
	}
	return len(r.samples) / r.channels
}

func (r *Recorder) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sampleRate
}

func (r *Recorder) Channels() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channels
}

// WriteWAV encodes the capture as 16-bit PCM WAV.
func (r *Recorder) WriteWAV(w io.Writer) error {
	r.mu.Lock()
	pcm := make([]int16, len(r.samples))
	utils.Float32sToInt16s(pcm, r.samples)
	rate, channels := r.sampleRate, r.channels
	r.mu.Unlock()

	if channels == 0 {
		return fmt.Errorf("recorder: nothing recorded")
	}

	return wav.WriteWAV16(w, rate, channels, pcm)
}

// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds deterministic audio fixtures shared by the tests.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the value of one channel at a frame index.
type Waveform func(frame int, channel int) float32

// Source streams a generated waveform. It satisfies audio.Source without
// importing it.
type Source struct {
	sampleRate int
	channels   int
	frames     int
	read       int
	chunk      int
	waveform   Waveform
}

// NewSource streams frames frames of waveform.
func NewSource(sampleRate, channels, frames int, waveform Waveform) *Source {
	return &Source{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		chunk:      4096,
		waveform:   waveform,
	}
}

// NewSineSource streams a sine at frequency Hz on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *Source {
	return NewSource(sampleRate, channels, frames, Sine(sampleRate, frequency))
}

// NewConstantSource streams value on every channel.
func NewConstantSource(sampleRate, channels, frames int, value float32) *Source {
	return NewSource(sampleRate, channels, frames, Constant(value))
}

// WithChunk changes the preferred read size reported by BufSize.
func (s *Source) WithChunk(samples int) *Source {
	s.chunk = samples
	return s
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return s.chunk }
func (s *Source) Close() error    { return nil }

// Reset rewinds the stream.
func (s *Source) Reset() {
	s.read = 0
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.read >= s.frames {
		return 0, io.EOF
	}

	frames := min(len(dst)/s.channels, s.frames-s.read)
	for f := range frames {
		for c := range s.channels {
			dst[f*s.channels+c] = s.waveform(s.read+f, c)
		}
	}
	s.read += frames

	if s.read >= s.frames {
		return frames * s.channels, io.EOF
	}

	return frames * s.channels, nil
}

// Samples renders frames frames of waveform as one interleaved slice.
func Samples(channels, frames int, waveform Waveform) []float32 {
	out := make([]float32, channels*frames)
	for f := range frames {
		for c := range channels {
			out[f*channels+c] = waveform(f, c)
		}
	}

	return out
}

// Sine is a unit sine at frequency Hz.
func Sine(sampleRate int, frequency float64) Waveform {
	return func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	}
}

// Constant is a DC signal.
func Constant(value float32) Waveform {
	return func(int, int) float32 { return value }
}

// Ramp maps frame i to i/scale, which makes interpolated positions easy to
// read back from mixed output.
func Ramp(scale float32) Waveform {
	return func(frame int, _ int) float32 { return float32(frame) / scale }
}

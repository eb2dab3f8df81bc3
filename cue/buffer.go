// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"fmt"
	"math"
	"time"

	"github.com/ik5/audcue/audio"
	"github.com/ik5/audcue/utils"
)

// Buffer is the immutable sample data shared by every instance of a cue.
type Buffer struct {
	samples    []float32
	channels   int
	sampleRate int
	frames     int
}

// NewBuffer copies interleaved samples into a Buffer.
func NewBuffer(samples []float32, channels, sampleRate int) (*Buffer, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFormat, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames",
			ErrInvalidFormat, len(samples), channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	}

	data := make([]float32, len(samples))
	copy(data, samples)

	return &Buffer{
		samples:    data,
		channels:   channels,
		sampleRate: sampleRate,
		frames:     len(data) / channels,
	}, nil
}

// BufferFromSource drains src into a Buffer. Sources with more than two
// channels are folded to mono. When targetRate is positive and differs from
// the source rate the data is resampled to it.
func BufferFromSource(src audio.Source, targetRate int) (*Buffer, error) {
	samples, err := audio.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	channels := src.Channels()
	if channels > 2 {
		samples = audio.Downmix(samples, channels)
		channels = 1
	}

	buf, err := NewBuffer(samples, channels, src.SampleRate())
	if err != nil {
		return nil, err
	}

	return buf.Resample(targetRate)
}

// Resample returns b converted to rate. A non-positive rate, or the rate b
// already has, returns b itself.
func (b *Buffer) Resample(rate int) (*Buffer, error) {
	if rate <= 0 || rate == b.sampleRate {
		return b, nil
	}

	samples, err := audio.Resample(b.samples, b.channels, b.sampleRate, rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	return &Buffer{
		samples:    samples,
		channels:   b.channels,
		sampleRate: rate,
		frames:     len(samples) / b.channels,
	}, nil
}

func (b *Buffer) FrameLength() int { return b.frames }
func (b *Buffer) Channels() int    { return b.channels }
func (b *Buffer) SampleRate() int  { return b.sampleRate }

// MicrosecondLength is frameLength * 1e6 / sampleRate, rounded down.
func (b *Buffer) MicrosecondLength() int64 {
	return int64(b.frames) * 1_000_000 / int64(b.sampleRate)
}

func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.MicrosecondLength()) * time.Microsecond
}

// lastFrame is the highest valid cursor position.
func (b *Buffer) lastFrame() float64 {
	if b.frames == 0 {
		return 0
	}
	return float64(b.frames - 1)
}

func (b *Buffer) clampPosition(pos float64) float64 {
	if pos < 0 || math.IsNaN(pos) {
		return 0
	}
	if last := b.lastFrame(); pos > last {
		return last
	}
	return pos
}

// millisToFrame is ms * sampleRate / 1000 in integer math. Products that
// would overflow saturate to the nearest end of the buffer.
func (b *Buffer) millisToFrame(ms int) float64 {
	rate := int64(b.sampleRate)
	switch {
	case int64(ms) > math.MaxInt64/rate:
		return b.lastFrame()
	case int64(ms) < math.MinInt64/rate:
		return 0
	}

	return float64(int64(ms) * rate / 1000)
}

// stereoAt linearly interpolates the frame at pos. Mono data feeds both
// sides.
func (b *Buffer) stereoAt(pos float64) (float32, float32) {
	if b.frames == 0 {
		return 0, 0
	}

	i := int(pos)
	if i < 0 {
		i = 0
	} else if i >= b.frames {
		i = b.frames - 1
	}
	j := min(i+1, b.frames-1)
	x := float32(pos - float64(i))

	if b.channels == 1 {
		v := utils.Lerp(b.samples[i], b.samples[j], x)
		return v, v
	}

	return utils.Lerp(b.samples[2*i], b.samples[2*j], x),
		utils.Lerp(b.samples[2*i+1], b.samples[2*j+1], x)
}

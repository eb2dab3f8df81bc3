// SPDX-License-Identifier: EPL-2.0

package audio

import "github.com/ik5/audcue/utils"

// Resample converts interleaved samples from srcRate to dstRate using cubic
// interpolation, preserving the channel count.
//
// When downsampling, a one-pole low-pass filter runs over the input first to
// tame aliasing. The output holds ceil(frames * dstRate / srcRate) frames.
func Resample(samples []float32, channels, srcRate, dstRate int) ([]float32, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if len(samples)%channels != 0 {
		return nil, ErrInvalidDstSize
	}

	frames := len(samples) / channels
	if srcRate == dstRate || frames == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	ratio := float64(srcRate) / float64(dstRate)
	in := samples
	if ratio > 1.0 {
		in = lowPass(samples, channels, 0.5)
	}

	outFrames := int((int64(frames)*int64(dstRate) + int64(srcRate) - 1) / int64(srcRate))
	out := make([]float32, outFrames*channels)

	at := func(frame, c int) float32 {
		if frame < 0 {
			frame = 0
		} else if frame >= frames {
			frame = frames - 1
		}
		return in[frame*channels+c]
	}

	for f := range outFrames {
		pos := float64(f) * ratio
		i := int(pos)
		x := float32(pos - float64(i))

		for c := range channels {
			out[f*channels+c] = utils.CubicInterpolate(
				at(i-1, c), at(i, c), at(i+1, c), at(i+2, c), x)
		}
	}

	return out, nil
}

// lowPass runs y[n] = alpha*x[n] + (1-alpha)*y[n-1] per channel, seeded with
// the first frame to avoid a warm-up transient.
func lowPass(samples []float32, channels int, alpha float32) []float32 {
	out := make([]float32, len(samples))
	state := make([]float32, channels)
	copy(state, samples[:channels])

	for i, x := range samples {
		c := i % channels
		state[c] = alpha*x + (1-alpha)*state[c]
		out[i] = state[c]
	}

	return out
}

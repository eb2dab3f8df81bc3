// SPDX-License-Identifier: EPL-2.0

package audio

// Downmix averages every frame of interleaved samples into a single mono
// sample. Mono input is returned as is; a trailing partial frame is dropped.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	dst := make([]float32, frames)
	invChannels := float32(1.0) / float32(channels)

	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (samples[idx] + samples[idx+1]) * 0.5
		}
	default:
		for f := range frames {
			sum := float32(0)
			base := f * channels
			for c := range channels {
				sum += samples[base+c]
			}
			dst[f] = sum * invChannels
		}
	}

	return dst
}

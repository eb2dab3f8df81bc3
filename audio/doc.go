// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming contracts and buffer helpers used to
// turn decoded files into in-memory sample data.
//
// # Source Interface
//
// Every format decoder returns a Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadAll drains a Source into one interleaved slice, which is what a cue
// buffer is built from.
//
// # Buffer Helpers
//
//   - Downmix folds any channel layout to mono by averaging each frame
//   - Resample changes the sample rate with cubic interpolation
//   - Int16LEToFloat32 converts raw 16-bit PCM bytes
//   - PCMSource adapts go-audio integer decoders (wav, aiff) to Source
//
// # Registry
//
// A Registry maps format keys to decoders and can pick one from a file
// extension:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	dec, err := reg.ForPath("shot.wav")
package audio

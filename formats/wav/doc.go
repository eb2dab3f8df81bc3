// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV files.
//
// Decoding is done by github.com/go-audio/wav; integer PCM at 8, 16, 24
// and 32 bits is accepted, with any channel count and sample rate. Samples
// come out of the returned audio.Source as float32 values in [-1, 1).
//
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not RIFF/WAVE
//	}
//
// WriteWAV16 writes interleaved 16-bit PCM with a canonical 44-byte header.
// The recorder sink uses it to bounce mixed cue output to disk.
package wav

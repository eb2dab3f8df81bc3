// SPDX-License-Identifier: EPL-2.0

// Package audcue loads sound files into cues: polyphonic, real-time sample
// players that many goroutines can trigger at once.
//
// The engine itself lives in the cue subpackage. This package wires it to
// the format decoders so a file on disk becomes a playable cue in one call.
//
// # Supported Formats
//
// The default registry decodes:
//   - WAV (PCM 8/16/24/32-bit) via formats/wav
//   - AIFF (PCM) via formats/aiff, as .aiff or .aif
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//
// Sources with more than two channels are folded to mono.
//
// # Quick Start
//
//	c, err := audcue.LoadFile("shot.wav", 8, nil)
//	if err != nil {
//		return err
//	}
//	defer c.Dispose()
//
//	if err := c.Open(); err != nil {
//		return err
//	}
//
//	// Fire and forget: the instance is recycled when it ends.
//	c.Play(0.9, 0.3, 1.0, 0)
//
// By default a cue renders against a clock and discards the audio. Pass a
// sink in cue.Options to hear it:
//
//	opts := cue.NewOptions()
//	opts.Sink = otosink.New()
//	c, err := audcue.LoadFile("shot.wav", 8, opts)
//
// # Pre-decoded Samples
//
// Interleaved float32 data that is already in memory becomes a cue with
// FromSamples:
//
//	c, err := audcue.FromSamples(samples, 2, 48000, "pad", 4, nil)
//
// # Offline Rendering
//
// A closed cue can be rendered on the caller's goroutine with Cue.Mix and
// written out with sink.Recorder or wav.WriteWAV16.
//
// See the individual subpackages for more detailed documentation.
package audcue

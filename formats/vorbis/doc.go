// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams through
// github.com/jfreymuth/oggvorbis, a pure Go decoder.
//
// Vorbis already decodes to float32, so the returned audio.Source hands the
// decoder's interleaved output through untouched.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//	samples, err := audio.ReadAll(src)
package vorbis

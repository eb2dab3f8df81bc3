// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio through
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always emits 16-bit stereo, so the returned audio.Source reports
// two channels regardless of the file's channel mode.
//
//	src, err := mp3.Decoder{}.Decode(file)
//	samples, err := audio.ReadAll(src)
package mp3

// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) files.
//
// Decoding is delegated to github.com/go-audio/aiff. Signed integer PCM at
// 8, 16, 24 and 32 bits is accepted with any channel count and sample rate.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not FORM/AIFF
//	}
//
// go-audio needs an io.ReadSeeker; other readers are buffered in memory
// first.
package aiff

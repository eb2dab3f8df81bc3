// SPDX-License-Identifier: EPL-2.0

package otosink

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnavailable is returned when no audio device can be used.
var ErrUnavailable = errors.New("audio device unavailable")

// bytesPerSample matches oto.FormatFloat32LE.
const bytesPerSample = 4

// encodeFloat32LE writes samples into dst, growing it when needed.
func encodeFloat32LE(dst []byte, samples []float32) []byte {
	size := len(samples) * bytesPerSample
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(s))
	}

	return dst
}

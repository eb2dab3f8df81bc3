// SPDX-License-Identifier: EPL-2.0

package audio

import "encoding/binary"

// Int16LEToFloat32 converts 16-bit little-endian PCM bytes to float32
// samples in [-1, 1). It returns the number of samples written.
func Int16LEToFloat32(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		v := int16(binary.LittleEndian.Uint16(src[2*i:]))
		dst[i] = float32(v) / 32768.0
	}

	return n
}

// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize      = errors.New("dst size must be multiple of channels")
	ErrInvalidChannels     = errors.New("channel count must be positive")
	ErrInvalidSampleRate   = errors.New("sample rate must be positive")
	ErrUnknownFormat       = errors.New("no decoder registered for format")
	ErrUnsupportedBitDepth = errors.New("unsupported PCM bit depth")
)

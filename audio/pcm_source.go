// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the part of the go-audio decoders (wav, aiff) that PCMSource
// reads from.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// PCMSource adapts a go-audio integer PCM decoder to Source.
type PCMSource struct {
	dec        PCMReader
	sampleRate int
	channels   int
	scale      float32
	offset     int
	intBuf     *goaudio.IntBuffer
}

// NewPCMSource wraps dec. bitDepth selects the normalisation; unsigned8
// marks 8-bit data stored with a +128 bias (WAV does this, AIFF does not).
func NewPCMSource(dec PCMReader, bitDepth int, unsigned8 bool) (*PCMSource, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrInvalidChannels
	}
	if format.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	s := &PCMSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
	}

	switch bitDepth {
	case 8:
		s.scale = 128.0
		if unsigned8 {
			s.offset = 128
		}
	case 16:
		s.scale = 32768.0
	case 24:
		s.scale = 8388608.0
	case 32:
		s.scale = 2147483648.0
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	return s, nil
}

func (s *PCMSource) SampleRate() int { return s.sampleRate }
func (s *PCMSource) Channels() int   { return s.channels }
func (s *PCMSource) Close() error    { return nil }
func (s *PCMSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *PCMSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]-s.offset) / s.scale
	}

	if err != nil {
		return n, fmt.Errorf("%w", err)
	}

	return n, nil
}

// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/audcue/audio"
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.ReadSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()
	if dec.Format() == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	// AIFF 8-bit samples are signed
	src, err := audio.NewPCMSource(dec, int(dec.BitDepth), false)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return src, nil
}

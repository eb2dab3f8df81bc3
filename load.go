// SPDX-License-Identifier: EPL-2.0

package audcue

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/audcue/audio"
	"github.com/ik5/audcue/cue"
	"github.com/ik5/audcue/formats/aiff"
	"github.com/ik5/audcue/formats/mp3"
	"github.com/ik5/audcue/formats/vorbis"
	"github.com/ik5/audcue/formats/wav"
)

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})

	return r
}

// LoadFile decodes path, choosing the decoder by extension, into a cue
// named after the file. Set opts.SampleRate to load files of different
// rates for one device.
func LoadFile(path string, polyphony int, opts *cue.Options) (*cue.Cue, error) {
	dec, err := DefaultRegistry().ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return decode(dec, f, name, polyphony, opts)
}

// Load decodes r as format ("wav", "mp3", ...) into a cue.
func Load(r io.Reader, format, name string, polyphony int, opts *cue.Options) (*cue.Cue, error) {
	dec, ok := DefaultRegistry().Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", audio.ErrUnknownFormat, format)
	}

	return decode(dec, r, name, polyphony, opts)
}

// FromSamples builds a cue from interleaved mono or stereo samples,
// resampled to opts.SampleRate when that is set.
func FromSamples(samples []float32, channels, sampleRate int, name string, polyphony int, opts *cue.Options) (*cue.Cue, error) {
	buf, err := cue.NewBuffer(samples, channels, sampleRate)
	if err != nil {
		return nil, err
	}

	return cue.New(name, buf, polyphony, opts)
}

func decode(dec audio.Decoder, r io.Reader, name string, polyphony int, opts *cue.Options) (*cue.Cue, error) {
	src, err := dec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	defer src.Close()

	buf, err := cue.BufferFromSource(src, targetRate(opts))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	return cue.New(name, buf, polyphony, opts)
}

func targetRate(opts *cue.Options) int {
	if opts == nil {
		return 0
	}
	return opts.SampleRate
}

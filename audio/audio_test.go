// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct{ name string }

func (stubDecoder) Decode(io.Reader) (Source, error) { return nil, nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("WAV", stubDecoder{name: "wav"})

	d, ok := reg.Get("wav")
	require.True(t, ok)
	assert.Equal(t, stubDecoder{name: "wav"}, d)

	_, ok = reg.Get("flac")
	assert.False(t, ok)
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("ogg", stubDecoder{name: "ogg"})

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "known extension", path: "sounds/frog.ogg"},
		{name: "upper case extension", path: "FROG.OGG"},
		{name: "unknown extension", path: "frog.flac", wantErr: ErrUnknownFormat},
		{name: "no extension", path: "frog", wantErr: ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := reg.ForPath(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stubDecoder{name: "ogg"}, d)
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("wav", stubDecoder{})
	reg.Register("aiff", stubDecoder{})
	reg.Register("mp3", stubDecoder{})

	assert.Equal(t, []string{"aiff", "mp3", "wav"}, reg.Formats())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	done := make(chan struct{})

	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			reg.Register("wav", stubDecoder{name: string(rune('a' + i))})
			_, _ = reg.Get("wav")
		}()
	}
	for range 8 {
		<-done
	}

	_, ok := reg.Get("wav")
	assert.True(t, ok)
}

// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audcue/internal/audiotest"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testBuffer(t *testing.T, channels, frames int, waveform audiotest.Waveform) *Buffer {
	t.Helper()

	buf, err := NewBuffer(audiotest.Samples(channels, frames, waveform), channels, 44100)
	require.NoError(t, err)

	return buf
}

func testCue(t *testing.T, buf *Buffer, polyphony int, opts *Options) *Cue {
	t.Helper()

	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}

	c, err := New("test", buf, polyphony, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Dispose() })

	return c
}

// mixFrames renders frames stereo frames in blocks of block frames.
func mixFrames(t *testing.T, c *Cue, frames, block int) []float32 {
	t.Helper()

	out := make([]float32, 0, frames*outputChannels)
	for frames > 0 {
		n := min(block, frames)
		dst := make([]float32, n*outputChannels)
		_, err := c.Mix(dst)
		require.NoError(t, err)
		out = append(out, dst...)
		frames -= n
	}

	return out
}

type recorder struct {
	mu       sync.Mutex
	instance []InstanceEvent
	opened   []LifecycleEvent
	closed   []LifecycleEvent
}

func (r *recorder) CueOpened(e LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, e)
}

func (r *recorder) CueClosed(e LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, e)
}

func (r *recorder) InstanceEvent(e InstanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instance = append(r.instance, e)
}

func (r *recorder) events() []InstanceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.instance)
}

func (r *recorder) types() []EventType {
	var out []EventType
	for _, e := range r.events() {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, e := range r.events() {
		if e.Type == t {
			n++
		}
	}
	return n
}

func listen(c *Cue) *recorder {
	r := &recorder{}
	c.AddListener(r)
	return r
}

// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audcue/internal/audiotest"
)

func TestNew(t *testing.T) {
	t.Parallel()

	buf := testBuffer(t, 1, 10, audiotest.Constant(0))

	_, err := New("bad", buf, 0, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New("nil", nil, 1, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	c := testCue(t, buf, 3, nil)
	assert.Equal(t, "test", c.Name())
	assert.Equal(t, 3, c.Polyphony())
	assert.Equal(t, 10, c.FrameLength())
	assert.Equal(t, buf.MicrosecondLength(), c.MicrosecondLength())
	assert.Same(t, buf, c.Buffer())
	assert.Equal(t, PanCutLinear, c.PanType())
	assert.False(t, c.IsOpen())

	c.SetName("renamed")
	assert.Equal(t, "renamed", c.Name())
}

func TestObtainExhaustion(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 2, nil)

	assert.Equal(t, 0, c.ObtainInstance())
	assert.Equal(t, 1, c.ObtainInstance())
	assert.Equal(t, NoInstance, c.ObtainInstance())

	id, err := c.PlayVolume(1)
	require.NoError(t, err)
	assert.Equal(t, NoInstance, id)

	require.NoError(t, c.ReleaseInstance(1))
	assert.Equal(t, 1, c.ObtainInstance())

	require.NoError(t, c.ReleaseInstance(0))
	require.NoError(t, c.ReleaseInstance(1))
	assert.Equal(t, 0, c.ObtainInstance(), "lowest free id first")
}

func TestObtainDefaults(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 1, nil)

	id, err := c.Play(0.3, 0.4, 2, 5)
	require.NoError(t, err)
	require.NoError(t, c.SetFramePosition(id, 7))
	require.NoError(t, c.ReleaseInstance(id))

	id = c.ObtainInstance()
	require.Equal(t, 0, id)

	vol, err := c.Volume(id)
	require.NoError(t, err)
	pan, err := c.Pan(id)
	require.NoError(t, err)
	speed, err := c.Speed(id)
	require.NoError(t, err)
	loops, err := c.Looping(id)
	require.NoError(t, err)
	pos, err := c.FramePosition(id)
	require.NoError(t, err)

	assert.InDelta(t, 1, vol, 0)
	assert.InDelta(t, 0, pan, 0)
	assert.InDelta(t, 1, speed, 0)
	assert.Zero(t, loops)
	assert.Zero(t, pos)
	assert.False(t, c.IsPlaying(id))
	assert.True(t, c.IsActive(id))
	assert.False(t, c.pool.slots[id].recycle.Load())
}

func TestConcurrentPlay(t *testing.T) {
	t.Parallel()

	const polyphony = 32

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), polyphony, nil)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int]int{}
	)
	for range polyphony * 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := c.Play(1, 0, 1, 0)
			assert.NoError(t, err)

			mu.Lock()
			ids[id]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, polyphony, ids[NoInstance])
	delete(ids, NoInstance)
	assert.Len(t, ids, polyphony)
	for id, n := range ids {
		assert.Equal(t, 1, n, "id %d handed out twice", id)
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, polyphony)
	}
}

func TestInvalidInstance(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 2, nil)

	calls := map[string]func(id int) error{
		"Release":     c.ReleaseInstance,
		"Start":       c.Start,
		"Stop":        c.Stop,
		"SetLooping":  func(id int) error { return c.SetLooping(id, 1) },
		"SetSpeed":    func(id int) error { return c.SetSpeed(id, 1) },
		"SetVolume":   func(id int) error { return c.SetVolume(id, 1) },
		"SetPan":      func(id int) error { return c.SetPan(id, 0) },
		"SetRecycle":  func(id int) error { return c.SetRecycleWhenDone(id, true) },
		"SetFrame":    func(id int) error { return c.SetFramePosition(id, 0) },
		"SetFraction": func(id int) error { return c.SetFractionalPosition(id, 0) },
		"SetMillis":   func(id int) error { return c.SetMillisecondPosition(id, 0) },
		"Position": func(id int) error {
			_, err := c.FramePosition(id)
			return err
		},
	}

	for name, call := range calls {
		for _, id := range []int{-1, 2, 0} {
			assert.ErrorIs(t, call(id), ErrInvalidInstance, "%s(%d)", name, id)
		}
	}

	assert.False(t, c.IsPlaying(0))
	assert.False(t, c.IsActive(7))
}

func TestInvalidArguments(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 2, nil)
	id := c.ObtainInstance()

	assert.ErrorIs(t, c.SetLooping(id, -2), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetSpeed(id, 0), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetSpeed(id, -1), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetSpeed(id, math.NaN()), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetSpeed(id, math.Inf(1)), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetVolume(id, math.NaN()), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetPan(id, math.NaN()), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetFractionalPosition(id, math.NaN()), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetPanType(PanType(9)), ErrInvalidArgument)

	_, err := c.Play(1, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.Play(1, 0, 1, -3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 1, c.ObtainInstance(), "rejected Play must not consume an instance")
}

func TestClamping(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 100, audiotest.Constant(0)), 1, nil)
	id := c.ObtainInstance()

	require.NoError(t, c.SetVolume(id, 3))
	require.NoError(t, c.SetPan(id, -7))
	vol, _ := c.Volume(id)
	pan, _ := c.Pan(id)
	assert.InDelta(t, 1, vol, 0)
	assert.InDelta(t, -1, pan, 0)

	require.NoError(t, c.SetVolume(id, -0.5))
	vol, _ = c.Volume(id)
	assert.InDelta(t, 0, vol, 0)

	positions := []struct {
		name string
		set  func() error
		want int
	}{
		{"negative frame", func() error { return c.SetFramePosition(id, -5) }, 0},
		{"past end", func() error { return c.SetFramePosition(id, 1000) }, 99},
		{"fraction above one", func() error { return c.SetFractionalPosition(id, 1.5) }, 99},
		{"negative fraction", func() error { return c.SetFractionalPosition(id, -0.5) }, 0},
		{"negative millis", func() error { return c.SetMillisecondPosition(id, -10) }, 0},
		{"millis past end", func() error { return c.SetMillisecondPosition(id, 10_000) }, 99},
		{"millis overflowing", func() error { return c.SetMillisecondPosition(id, math.MaxInt) }, 99},
		{"millis 1<<50", func() error { return c.SetMillisecondPosition(id, 1<<50) }, 99},
		{"millis most negative", func() error { return c.SetMillisecondPosition(id, math.MinInt) }, 0},
		{"frame far past end", func() error { return c.SetFramePosition(id, 100*1000) }, 99},
	}
	for _, tt := range positions {
		require.NoError(t, tt.set(), tt.name)
		pos, err := c.FramePosition(id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, pos, tt.name)
	}
}

func TestPositionConversions(t *testing.T) {
	t.Parallel()

	t.Run("fractional", func(t *testing.T) {
		t.Parallel()

		for _, frames := range []int{1, 2, 5, 1000, 1001, 44100} {
			c := testCue(t, testBuffer(t, 1, frames, audiotest.Constant(0)), 1, nil)
			id := c.ObtainInstance()

			require.NoError(t, c.SetFractionalPosition(id, 0.25))
			pos, err := c.FramePosition(id)
			require.NoError(t, err)
			assert.Equal(t, (frames-1)/4, pos, "%d frames", frames)
		}
	})

	t.Run("milliseconds", func(t *testing.T) {
		t.Parallel()

		c := testCue(t, testBuffer(t, 1, 44100, audiotest.Constant(0)), 1, nil)
		id := c.ObtainInstance()

		require.NoError(t, c.SetMillisecondPosition(id, 300))
		pos, err := c.FramePosition(id)
		require.NoError(t, err)
		assert.Equal(t, 13230, pos)
	})

	t.Run("empty buffer", func(t *testing.T) {
		t.Parallel()

		c := testCue(t, testBuffer(t, 1, 0, audiotest.Constant(0)), 1, nil)
		id := c.ObtainInstance()

		require.NoError(t, c.SetFramePosition(id, 5))
		pos, err := c.FramePosition(id)
		require.NoError(t, err)
		assert.Zero(t, pos)
	})
}

func TestStartStopTransitions(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 100, audiotest.Constant(0)), 1, nil)
	rec := listen(c)

	id := c.ObtainInstance()
	require.NoError(t, c.Stop(id))
	require.NoError(t, c.SetFramePosition(id, 40))
	require.NoError(t, c.Start(id))
	require.NoError(t, c.Start(id))
	assert.True(t, c.IsPlaying(id))

	mixFrames(t, c, 10, 10)

	require.NoError(t, c.Stop(id))
	require.NoError(t, c.Stop(id))
	assert.False(t, c.IsPlaying(id))

	pos, err := c.FramePosition(id)
	require.NoError(t, err)
	assert.Equal(t, 50, pos, "stop keeps the position")

	require.NoError(t, c.ReleaseInstance(id))
	assert.ErrorIs(t, c.ReleaseInstance(id), ErrInvalidInstance)

	c.events.flush()
	events := rec.events()
	require.Equal(t, []EventType{ObtainInstance, StartInstance, StopInstance, ReleaseInstance}, rec.types())
	assert.Equal(t, 40, events[1].Frame)
	assert.Equal(t, 50, events[2].Frame)
	for _, e := range events {
		assert.Equal(t, id, e.Instance)
		assert.Same(t, c, e.Source)
		assert.False(t, e.Time.IsZero())
	}
}

func TestOpenClose(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 100, audiotest.Constant(0)), 1, &Options{BufferFrames: 64, Priority: 3})
	rec := listen(c)

	assert.ErrorIs(t, c.Close(), ErrIllegalState)
	assert.ErrorIs(t, c.OpenWithBufferSize(0), ErrInvalidArgument)

	require.NoError(t, c.Open())
	assert.True(t, c.IsOpen())
	assert.ErrorIs(t, c.Open(), ErrIllegalState)
	assert.ErrorIs(t, c.OpenWithBufferSize(128), ErrIllegalState)

	_, err := c.Mix(make([]float32, 8))
	assert.ErrorIs(t, err, ErrIllegalState)

	require.NoError(t, c.Close())
	assert.False(t, c.IsOpen())
	assert.ErrorIs(t, c.Close(), ErrIllegalState)

	require.NoError(t, c.OpenWithBufferSize(128))
	require.NoError(t, c.Close())

	c.events.flush()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.opened, 2)
	require.Len(t, rec.closed, 2)
	assert.Equal(t, 64, rec.opened[0].BufferFrames)
	assert.Equal(t, 128, rec.opened[1].BufferFrames)
	assert.Equal(t, 3, rec.opened[0].Priority)
	assert.Same(t, c, rec.closed[0].Source)
}

func TestConcurrentOpen(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 100, audiotest.Constant(0)), 1, nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := c.Open()
			if err == nil {
				mu.Lock()
				opened++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrIllegalState)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	require.NoError(t, c.Close())
}

func TestRealTimePlayback(t *testing.T) {
	t.Parallel()

	// 441 frames is 10ms at 44.1kHz.
	c := testCue(t, testBuffer(t, 1, 441, audiotest.Constant(0.1)), 2, &Options{BufferFrames: 64})
	rec := listen(c)

	require.NoError(t, c.Open())

	id, err := c.Play(1, 0, 1, 1)
	require.NoError(t, err)
	require.NotEqual(t, NoInstance, id)

	require.Eventually(t, func() bool {
		return rec.count(ReleaseInstance) == 1
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.NoError(t, c.Err())
	assert.Equal(t,
		[]EventType{ObtainInstance, StartInstance, Loop, StopInstance, ReleaseInstance},
		rec.types())
}

type failingSink struct {
	openErr  error
	writeErr error
	closed   chan struct{}
	once     sync.Once
}

func newFailingSink(openErr, writeErr error) *failingSink {
	return &failingSink{openErr: openErr, writeErr: writeErr, closed: make(chan struct{})}
}

func (s *failingSink) Open(int, int, int) error { return s.openErr }

func (s *failingSink) Write([]float32) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	<-s.closed
	return ErrSinkClosed
}

func (s *failingSink) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func TestSinkFailures(t *testing.T) {
	t.Parallel()

	t.Run("open", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("no device")
		c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 1,
			&Options{Sink: newFailingSink(boom, nil)})

		err := c.Open()
		require.ErrorIs(t, err, ErrDeviceUnavailable)
		require.ErrorIs(t, err, boom)
		assert.False(t, c.IsOpen())

		_, err = c.Mix(make([]float32, 4))
		assert.NoError(t, err, "failed open leaves the cue closed")
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("underrun")
		c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 1,
			&Options{Sink: newFailingSink(nil, boom)})

		require.NoError(t, c.Open())
		require.Eventually(t, func() bool { return c.Err() != nil }, 5*time.Second, time.Millisecond)
		assert.ErrorIs(t, c.Err(), boom)
		require.NoError(t, c.Close())
	})

	t.Run("close unblocks write", func(t *testing.T) {
		t.Parallel()

		c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 1,
			&Options{Sink: newFailingSink(nil, nil)})

		require.NoError(t, c.Open())
		require.NoError(t, c.Close())
		assert.NoError(t, c.Err())
	})
}

func TestDispose(t *testing.T) {
	t.Parallel()

	c := testCue(t, testBuffer(t, 1, 10, audiotest.Constant(0)), 1, nil)
	rec := listen(c)

	require.NoError(t, c.Open())
	c.ObtainInstance()
	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())

	assert.False(t, c.IsOpen())
	assert.ErrorIs(t, c.Open(), ErrIllegalState)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.closed, 1, "pending events are delivered before dispose returns")
	assert.Len(t, rec.instance, 1)
}

// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// renderLoop owns the sink between Open and Close.
func (c *Cue) renderLoop(sink Sink, out []float32, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-stop:
			return
		default:
		}

		c.renderBlock(out)

		if err := sink.Write(out); err != nil {
			select {
			case <-stop:
				return
			default:
			}

			c.setErr(err)
			c.log.WithFields(logrus.Fields{
				"function": "renderLoop",
				"error":    err,
			}).Error("sink write failed, render stopped")

			return
		}
	}
}

// renderBlock overwrites out with the sum of every running instance.
func (c *Cue) renderBlock(out []float32) {
	clear(out)

	frames := len(out) / outputChannels
	if frames == 0 {
		return
	}

	law := PanType(c.panType.Load())
	for id := range c.pool.slots {
		in := &c.pool.slots[id]
		if in.playing.Load() {
			c.renderInstance(id, in, out, frames, law)
		}
	}
}

// tick is one instance's progress through a block, computed without locks
// and applied by commit.
type tick struct {
	gen, seq  uint64
	pos       float64
	loopsRead int64
	loops     int64
	wraps     int
	finished  bool
}

func (c *Cue) renderInstance(id int, in *instance, out []float32, frames int, law PanType) {
	c.commit(id, in, c.advance(in, out, frames, law))
}

// advance mixes in into out and returns where it ended up.
func (c *Cue) advance(in *instance, out []float32, frames int, law PanType) tick {
	t := tick{
		gen: in.gen.Load(),
		seq: in.seq.Load(),
		pos: in.pos.Load(),
	}
	speed := in.speed.Load()
	vol, pan := in.volume.Load(), in.pan.Load()

	if in.fresh.Swap(false) {
		in.lastVolume, in.lastPan = vol, pan
	}

	v, p := in.lastVolume, in.lastPan
	volStep := (vol - v) / float64(frames)
	panStep := (pan - p) / float64(frames)
	gl, gr := law.Gains(p)
	last := c.buf.lastFrame()

	for f := 0; f < frames; f++ {
		v += volStep
		if panStep != 0 {
			p += panStep
			gl, gr = law.Gains(p)
		}

		l, r := c.buf.stereoAt(t.pos)
		out[2*f] += l * float32(gl*v)
		out[2*f+1] += r * float32(gr*v)

		t.pos += speed
		if t.pos <= last {
			continue
		}

		// The loop count is read at the first wrap of the block and
		// counted down locally after that.
		if t.wraps == 0 {
			t.loopsRead = in.loops.Load()
			t.loops = t.loopsRead
		}
		if t.loops == 0 || c.buf.frames == 0 {
			t.pos = last
			t.finished = true
			break
		}
		if t.loops > 0 {
			t.loops--
		}
		t.wraps++
		t.pos = 0
	}

	in.lastVolume, in.lastPan = vol, pan

	return t
}

// commit applies t unless the instance was paused, repositioned or released
// since advance read it.
func (c *Cue) commit(id int, in *instance, t tick) {
	last := int(c.buf.lastFrame())

	in.mu.Lock()
	if in.seq.Load() != t.seq || in.gen.Load() != t.gen || !in.playing.Load() {
		in.mu.Unlock()
		return
	}
	in.pos.Store(t.pos)
	if t.wraps > 0 && t.loopsRead > 0 {
		in.loops.CompareAndSwap(t.loopsRead, t.loops)
	}
	stopped := false
	if t.finished {
		in.state.Store(int32(stateDone))
		stopped = in.playing.CompareAndSwap(true, false)
	}
	recycle := t.finished && in.recycle.Load()
	in.mu.Unlock()

	for range t.wraps {
		c.raiseFromMixer(Loop, id, last)
	}
	if stopped {
		c.raiseFromMixer(StopInstance, id, last)
	}
	if recycle && c.pool.recycle(id, t.gen) {
		c.raiseFromMixer(ReleaseInstance, id, 0)
	}
}

func (c *Cue) raiseFromMixer(t EventType, id, frame int) {
	c.events.tryPost(envelope{
		kind: kindInstance,
		instance: InstanceEvent{
			Type:     t,
			Time:     time.Now(),
			Instance: id,
			Frame:    frame,
			Source:   c,
		},
	})
}

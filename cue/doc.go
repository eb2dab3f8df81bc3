// SPDX-License-Identifier: EPL-2.0

// Package cue implements a polyphonic sample player.
//
// A Cue holds one immutable Buffer and a fixed pool of instances, each an
// independent playback cursor with its own position, speed, volume, pan and
// loop count. While a cue is open a single render goroutine sums every
// running instance into a stereo block and hands it to a Sink. Control
// methods may be called from any goroutine at any time; they never wait for
// the render goroutine.
//
// Basic usage:
//
//	buf, _ := cue.NewBuffer(samples, 1, 44100)
//	c, _ := cue.New("click", buf, 4, nil)
//	defer c.Dispose()
//
//	if err := c.Open(); err != nil {
//		return err
//	}
//	id, _ := c.Play(0.8, -0.5, 1, 0)
//
// Play returns NoInstance when every instance is busy.
//
// # Events
//
// Listeners registered with AddListener are told about instance changes and
// about the cue opening and closing. Delivery is asynchronous and in
// registration order. Events raised by the render goroutine are dropped,
// and counted, when the listeners fall behind; see DroppedEvents.
//
// # Offline rendering
//
// While closed, Mix renders one block on the caller's goroutine, which is
// useful for bouncing to a file and for tests.
package cue

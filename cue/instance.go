// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"math"
	"sync"
	"sync/atomic"
)

// NoInstance is returned when every instance of a cue is in use.
const NoInstance = -1

type instanceState int32

const (
	stateFree instanceState = iota
	stateActive
	stateDone
)

// atomicFloat stores a float64 as its IEEE-754 bits.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

func (a *atomicFloat) CompareAndSwap(old, v float64) bool {
	return a.bits.CompareAndSwap(math.Float64bits(old), math.Float64bits(v))
}

// instance is one playback cursor. Every field shared with control
// goroutines is a separate atomic; the render goroutine never locks to read
// them.
//
// mu orders the short transitions that must not interleave: a pause or
// reposition against the render goroutine committing a tick. It is never
// held across a tick. Lock order is pool.mu before mu.
type instance struct {
	mu sync.Mutex

	state   atomic.Int32
	gen     atomic.Uint64
	seq     atomic.Uint64
	playing atomic.Bool
	recycle atomic.Bool
	fresh   atomic.Bool
	loops   atomic.Int64

	pos    atomicFloat
	speed  atomicFloat
	volume atomicFloat
	pan    atomicFloat

	// Guarded by pool.mu.
	inFree bool

	// Gains reached at the end of the previous tick. Owned by whichever
	// goroutine renders.
	lastVolume float64
	lastPan    float64
}

// reset restores obtain defaults. The caller holds mu.
func (in *instance) reset() {
	in.seq.Add(1)
	in.playing.Store(false)
	in.recycle.Store(false)
	in.fresh.Store(true)
	in.loops.Store(0)
	in.pos.Store(0)
	in.speed.Store(1)
	in.volume.Store(1)
	in.pan.Store(0)
}

func (in *instance) loadState() instanceState { return instanceState(in.state.Load()) }

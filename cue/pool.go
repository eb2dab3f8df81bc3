// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"container/heap"
	"fmt"
	"sync"
)

// freeList is a min-heap of ids so obtain always hands out the lowest free id.
type freeList []int

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *freeList) Push(x any)        { *f = append(*f, x.(int)) }

func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

// pool preallocates every instance of a cue. Ownership changes, and the
// transitions that depend on ownership, take mu.
type pool struct {
	mu    sync.Mutex
	free  freeList
	slots []instance
}

func newPool(size int) *pool {
	p := &pool{
		free:  make(freeList, size),
		slots: make([]instance, size),
	}
	for i := range p.free {
		p.free[i] = i
		p.slots[i].inFree = true
	}
	heap.Init(&p.free)

	return p
}

func (p *pool) obtain() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return NoInstance
	}

	id := heap.Pop(&p.free).(int)
	in := &p.slots[id]
	in.inFree = false

	in.mu.Lock()
	in.gen.Add(1)
	in.reset()
	in.state.Store(int32(stateActive))
	in.mu.Unlock()

	return id
}

// release returns id to the free list. It reports false when id is already
// free.
func (p *pool) release(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.releaseLocked(id)
}

// recycle releases id only if it is still the finished voice of generation
// gen. A restart or a release in between wins.
func (p *pool) recycle(id int, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	in := &p.slots[id]
	if in.gen.Load() != gen || in.loadState() != stateDone || in.playing.Load() {
		return false
	}

	return p.releaseLocked(id)
}

func (p *pool) releaseLocked(id int) bool {
	in := &p.slots[id]
	if in.inFree {
		return false
	}

	in.mu.Lock()
	in.gen.Add(1)
	in.seq.Add(1)
	in.playing.Store(false)
	in.state.Store(int32(stateFree))
	in.mu.Unlock()

	in.inFree = true
	heap.Push(&p.free, id)

	return true
}

// start makes an obtained instance play from its current position. It
// reports the frame and whether the instance was paused before.
func (p *pool) start(id int) (int, bool, error) {
	if err := p.checkRange(id); err != nil {
		return 0, false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	in := &p.slots[id]
	if in.inFree {
		return 0, false, fmt.Errorf("%w: id %d is not obtained", ErrInvalidInstance, id)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.playing.Load() {
		return 0, false, nil
	}

	in.fresh.Store(true)
	in.state.Store(int32(stateActive))
	in.playing.Store(true)

	return int(in.pos.Load()), true, nil
}

func (p *pool) checkRange(id int) error {
	if id < 0 || id >= len(p.slots) {
		return fmt.Errorf("%w: id %d out of range [0, %d)", ErrInvalidInstance, id, len(p.slots))
	}
	return nil
}

// get returns the instance for id if it is currently obtained.
func (p *pool) get(id int) (*instance, error) {
	if err := p.checkRange(id); err != nil {
		return nil, err
	}

	in := &p.slots[id]
	if in.loadState() == stateFree {
		return nil, fmt.Errorf("%w: id %d is not obtained", ErrInvalidInstance, id)
	}

	return in, nil
}

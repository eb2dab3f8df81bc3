// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType identifies what happened to an instance.
type EventType int

const (
	ObtainInstance EventType = iota
	ReleaseInstance
	StartInstance
	StopInstance
	Loop
)

func (t EventType) String() string {
	switch t {
	case ObtainInstance:
		return "obtain"
	case ReleaseInstance:
		return "release"
	case StartInstance:
		return "start"
	case StopInstance:
		return "stop"
	case Loop:
		return "loop"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// InstanceEvent describes a change to one instance. Frame is set for start,
// stop and loop events.
type InstanceEvent struct {
	Type     EventType
	Time     time.Time
	Instance int
	Frame    int
	Source   *Cue
}

// LifecycleEvent is delivered when a cue opens or closes.
type LifecycleEvent struct {
	Time         time.Time
	Priority     int
	BufferFrames int
	Source       *Cue
}

// Listener receives events on the dispatcher goroutine, never on the render
// goroutine. A listener may call back into the cue, except for Dispose.
// Implementations must be comparable to be removed.
type Listener interface {
	CueOpened(LifecycleEvent)
	CueClosed(LifecycleEvent)
	InstanceEvent(InstanceEvent)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
// Register it by pointer.
type ListenerFuncs struct {
	Opened   func(LifecycleEvent)
	Closed   func(LifecycleEvent)
	Instance func(InstanceEvent)
}

func (l *ListenerFuncs) CueOpened(e LifecycleEvent) {
	if l.Opened != nil {
		l.Opened(e)
	}
}

func (l *ListenerFuncs) CueClosed(e LifecycleEvent) {
	if l.Closed != nil {
		l.Closed(e)
	}
}

func (l *ListenerFuncs) InstanceEvent(e InstanceEvent) {
	if l.Instance != nil {
		l.Instance(e)
	}
}

type envelopeKind int

const (
	kindInstance envelopeKind = iota
	kindOpened
	kindClosed
	kindFlush
)

type envelope struct {
	kind      envelopeKind
	instance  InstanceEvent
	lifecycle LifecycleEvent
	flushed   chan struct{}
}

// dispatcher moves events off the caller's goroutine. Events wait in a
// mutex-guarded queue drained by a single goroutine. Control events are
// always queued; render events are dropped once limit events are waiting.
type dispatcher struct {
	mu      sync.Mutex
	pending []envelope
	spare   []envelope
	limit   int
	closed  bool

	wake chan struct{}
	done chan struct{}
	quit chan struct{}
	once sync.Once

	lmu       sync.Mutex
	listeners atomic.Pointer[[]Listener]

	dropped  atomic.Uint64
	reported uint64

	log *logrus.Entry
}

func newDispatcher(limit int, log *logrus.Entry) *dispatcher {
	d := &dispatcher{
		pending: make([]envelope, 0, limit),
		spare:   make([]envelope, 0, limit),
		limit:   limit,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
		log:     log,
	}
	d.listeners.Store(&[]Listener{})

	go d.run()

	return d
}

// post queues e without waiting for listeners.
func (d *dispatcher) post(e envelope) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = append(d.pending, e)
	d.mu.Unlock()

	d.signal()
}

// tryPost queues e unless limit events are already waiting, in which case e
// is dropped and counted.
func (d *dispatcher) tryPost(e envelope) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if len(d.pending) >= d.limit {
		d.mu.Unlock()
		d.dropped.Add(1)
		return
	}
	d.pending = append(d.pending, e)
	d.mu.Unlock()

	d.signal()
}

func (d *dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// flush is an internal delivery barrier: it returns once everything queued
// before it has been delivered. Calling it from a listener deadlocks.
func (d *dispatcher) flush() {
	ch := make(chan struct{})
	d.post(envelope{kind: kindFlush, flushed: ch})

	select {
	case <-ch:
	case <-d.done:
	}
}

// stop delivers what is already queued and ends the goroutine. Later posts
// are discarded.
func (d *dispatcher) stop() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.quit)
	})
	<-d.done
}

func (d *dispatcher) add(l Listener) {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	cur := *d.listeners.Load()
	next := make([]Listener, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, l)
	d.listeners.Store(&next)
}

func (d *dispatcher) remove(l Listener) bool {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	cur := *d.listeners.Load()
	for i, existing := range cur {
		if sameListener(existing, l) {
			next := make([]Listener, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			d.listeners.Store(&next)
			return true
		}
	}

	return false
}

func sameListener(a, b Listener) (same bool) {
	// Comparing two values of the same uncomparable dynamic type panics.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()

	return a == b
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.quit:
			d.drain()
			return
		}
	}
}

// drain delivers batches until the queue is empty.
func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = d.spare[:0]
		d.mu.Unlock()

		if len(batch) == 0 {
			d.spare = batch
			return
		}

		for _, e := range batch {
			d.deliver(e)
		}
		clear(batch)
		d.spare = batch
	}
}

func (d *dispatcher) deliver(e envelope) {
	if n := d.dropped.Load(); n != d.reported {
		d.log.WithFields(logrus.Fields{
			"function": "dispatcher.deliver",
			"dropped":  n - d.reported,
			"total":    n,
		}).Warn("event queue full, events dropped")
		d.reported = n
	}

	if e.kind == kindFlush {
		close(e.flushed)
		return
	}

	for _, l := range *d.listeners.Load() {
		d.call(l, e)
	}
}

func (d *dispatcher) call(l Listener, e envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{
				"function": "dispatcher.call",
				"panic":    r,
			}).Warn("listener panicked")
		}
	}()

	switch e.kind {
	case kindInstance:
		l.InstanceEvent(e.instance)
	case kindOpened:
		l.CueOpened(e.lifecycle)
	case kindClosed:
		l.CueClosed(e.lifecycle)
	}
}

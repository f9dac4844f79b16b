// Package loop provides the single logical thread the playback controller
// runs on: closures are executed one at a time, in posting order.
package loop

import (
	"sync"
	"time"
)

// Scheduler serializes closures onto one logical thread.
type Scheduler interface {
	// Post queues fn. It returns false if the scheduler has stopped.
	Post(fn func()) bool

	// AfterFunc posts fn once d has elapsed, unless the timer is stopped
	// first.
	AfterFunc(d time.Duration, fn func()) Timer

	// Stop runs everything already posted and refuses new work.
	Stop()
}

// Timer is a cancellable deferred action.
type Timer interface {
	// Stop prevents the action from being posted. It returns false if the
	// action was already posted or stopped.
	Stop() bool
}

// Loop is a Scheduler backed by a goroutine and an unbounded queue, so a
// closure may post further closures without blocking.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool

	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc posts fn after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Stop drains the queue and waits for the loop goroutine to exit. It must
// not be called from a closure running on the loop.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	})
	<-l.exited
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		l.drain()
		select {
		case <-l.wake:
		case <-l.done:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		l.mu.Unlock()

		fn()
	}
}

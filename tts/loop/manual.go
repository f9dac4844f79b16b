package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by the caller. Nothing runs
// until Drain or Advance is called, and time only moves through Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	queue   []func()
	timers  []*manualTimer
	stopped bool
}

type manualTimer struct {
	m       *Manual
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post queues fn.
func (m *Manual) Post(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.queue = append(m.queue, fn)
	return true
}

// AfterFunc registers fn to be posted once the clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{m: m, due: m.now + d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Stop refuses new work. Queued closures still run on the next Drain.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Drain runs queued closures, including ones they post, until the queue is
// empty. It returns the number of closures run.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// Advance moves the clock forward, posts every timer that came due in due
// order, and drains the queue.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	live := m.timers[:0]
	for _, t := range m.timers {
		switch {
		case t.stopped:
		case t.due <= m.now:
			t.fired = true
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		m.queue = append(m.queue, t.fn)
	}
	m.mu.Unlock()

	m.Drain()
}

// Queued returns the number of closures waiting to run.
func (m *Manual) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ActiveTimers returns the number of timers neither fired nor stopped.
func (m *Manual) ActiveTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Package clock provides a minimal timer abstraction so the debounce and
// cooldown state machines can be tested without real wall-clock waits.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable pending callback
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks after a delay
type Clock interface {
	// AfterFunc runs f in its own goroutine after d has elapsed
	AfterFunc(d time.Duration, f func()) Timer
	// Now returns the current time
	Now() time.Time
}

// Real returns a Clock backed by the time package
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced Clock for tests
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	nextID  int
}

// NewFake creates a fake clock starting at an arbitrary fixed time
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type fakeTimer struct {
	clock    *Fake
	id       int
	deadline time.Time
	f        func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range t.clock.pending {
		if p.id == t.id {
			t.clock.pending = append(t.clock.pending[:i], t.clock.pending[i+1:]...)
			return true
		}
	}
	return false
}

// AfterFunc schedules f to run when the fake clock is advanced past d
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &fakeTimer{
		clock:    c,
		id:       c.nextID,
		deadline: c.now.Add(d),
		f:        f,
	}
	c.pending = append(c.pending, t)
	return t
}

// Now returns the fake clock's current time
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and fires due timers synchronously,
// in deadline order. Callbacks run without the clock lock held so they
// may schedule new timers.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		sort.SliceStable(c.pending, func(i, j int) bool {
			return c.pending[i].deadline.Before(c.pending[j].deadline)
		})

		var due *fakeTimer
		for _, t := range c.pending {
			if !t.deadline.After(target) {
				due = t
				break
			}
		}
		if due == nil {
			break
		}

		// Remove and fire
		for i, t := range c.pending {
			if t.id == due.id {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				break
			}
		}
		due.stopped = true
		c.now = due.deadline
		c.mu.Unlock()
		due.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// PendingCount returns the number of scheduled timers, for test assertions
func (c *Fake) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

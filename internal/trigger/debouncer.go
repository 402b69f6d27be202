// Package trigger decides when enough silence has elapsed after speech to
// fire a suggestion request.
package trigger

import (
	"sync"
	"time"

	"github.com/candidai/interview-gateway/internal/clock"
)

// FireFunc runs when the quiescence window elapses with no newer fragment,
// or immediately on a manual trigger. manual reports which path fired.
type FireFunc func(manual bool)

// Debouncer is a two-state machine (idle, armed) over a cancellable timer.
// Each new final transcript fragment re-arms the timer for the full
// quiescence window; expiry fires at most once per armed cycle.
type Debouncer struct {
	mu     sync.Mutex
	clk    clock.Clock
	window time.Duration
	fire   FireFunc

	timer clock.Timer
	// generation invalidates callbacks from timers that were superseded
	// between their scheduling and their firing
	generation uint64
	closed     bool
}

// NewDebouncer creates an idle debouncer. fire is invoked from the timer
// goroutine on automatic expiry and synchronously on TriggerNow.
func NewDebouncer(clk clock.Clock, window time.Duration, fire FireFunc) *Debouncer {
	return &Debouncer{
		clk:    clk,
		window: window,
		fire:   fire,
	}
}

// Arm starts (or restarts) the quiescence timer. Called on every growth of
// the finalized transcript buffer while auto-trigger is enabled.
func (d *Debouncer) Arm() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = d.clk.AfterFunc(d.window, func() {
		d.expire(gen)
	})
	d.mu.Unlock()
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fire(false)
}

// TriggerNow cancels any armed timer and fires synchronously. Manual and
// automatic firing are mutually exclusive: bumping the generation here
// invalidates an expiry already in flight.
func (d *Debouncer) TriggerNow() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.mu.Unlock()

	d.fire(true)
}

// Cancel disarms any pending timer without firing
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

// Close cancels any pending timer and rejects all further arms and triggers.
// Used on session end or mode switch.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.closed = true
}

// Armed reports whether a timer is currently pending
func (d *Debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Package cooldown implements the timed lockout that follows a rate-limit
// signal from the generation backend.
package cooldown

import (
	"sync"
	"time"

	"github.com/candidai/interview-gateway/internal/clock"
)

// Limiter is a two-state machine: clear or cooling(remaining). While cooling,
// all trigger attempts must be rejected with the remaining seconds surfaced
// to the caller.
type Limiter struct {
	mu        sync.Mutex
	clk       clock.Clock
	duration  int
	remaining int
	timer     clock.Timer
	closed    bool

	// onTick, if set, observes every countdown change including the final
	// transition to clear (remaining == 0)
	onTick func(remaining int)
}

// NewLimiter creates a clear limiter that cools for durationSeconds once
// Begin is called.
func NewLimiter(clk clock.Clock, durationSeconds int, onTick func(remaining int)) *Limiter {
	return &Limiter{
		clk:      clk,
		duration: durationSeconds,
		onTick:   onTick,
	}
}

// Begin enters the cooling state. Re-entrant calls while already cooling are
// no-ops and do not reset the countdown, so overlapping rate-limit errors
// cannot inflate the lockout. Returns true if a new cooldown was started.
func (l *Limiter) Begin() bool {
	l.mu.Lock()
	if l.closed || l.remaining > 0 {
		l.mu.Unlock()
		return false
	}
	l.remaining = l.duration
	l.timer = l.clk.AfterFunc(time.Second, l.tick)
	l.mu.Unlock()

	if l.onTick != nil {
		l.onTick(l.duration)
	}
	return true
}

func (l *Limiter) tick() {
	l.mu.Lock()
	if l.closed || l.remaining == 0 {
		l.mu.Unlock()
		return
	}
	l.remaining--
	remaining := l.remaining
	if remaining > 0 {
		l.timer = l.clk.AfterFunc(time.Second, l.tick)
	} else {
		l.timer = nil
	}
	l.mu.Unlock()

	if l.onTick != nil {
		l.onTick(remaining)
	}
}

// Active reports whether a cooldown is in progress
func (l *Limiter) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining > 0
}

// Remaining returns the seconds left in the current cooldown, 0 if clear
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// Close stops the countdown and rejects further Begins. Used on session end.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.remaining = 0
	l.closed = true
}

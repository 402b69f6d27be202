package cooldown

import (
	"sync"
	"testing"
	"time"

	"github.com/candidai/interview-gateway/internal/clock"
)

func TestLimiter_CountdownToClear(t *testing.T) {
	clk := clock.NewFake()
	l := NewLimiter(clk, 10, nil)

	if !l.Begin() {
		t.Fatal("Begin() on a clear limiter should start a cooldown")
	}
	if !l.Active() || l.Remaining() != 10 {
		t.Fatalf("Expected cooling with 10s remaining, got active=%v remaining=%d", l.Active(), l.Remaining())
	}

	// Exactly R one-second ticks later the state is clear
	for i := 9; i >= 0; i-- {
		clk.Advance(time.Second)
		if l.Remaining() != i {
			t.Fatalf("After tick, expected remaining=%d, got %d", i, l.Remaining())
		}
	}
	if l.Active() {
		t.Error("Expected clear after full countdown")
	}
}

func TestLimiter_ReentrantBeginIsNoOp(t *testing.T) {
	clk := clock.NewFake()
	l := NewLimiter(clk, 10, nil)

	l.Begin()
	clk.Advance(4 * time.Second)
	if l.Remaining() != 6 {
		t.Fatalf("Expected 6s remaining, got %d", l.Remaining())
	}

	// A second rate-limit signal mid-cooldown must not reset the countdown
	if l.Begin() {
		t.Error("Re-entrant Begin() should report no new cooldown")
	}
	if l.Remaining() != 6 {
		t.Errorf("Re-entrant Begin() changed remaining to %d", l.Remaining())
	}
}

func TestLimiter_InvariantRemainingImpliesActive(t *testing.T) {
	clk := clock.NewFake()
	l := NewLimiter(clk, 3, nil)
	l.Begin()

	for l.Remaining() > 0 {
		if !l.Active() {
			t.Fatal("remaining > 0 must imply active")
		}
		clk.Advance(time.Second)
	}
	if l.Active() {
		t.Error("remaining == 0 must imply clear")
	}
}

func TestLimiter_TickObserver(t *testing.T) {
	clk := clock.NewFake()
	var mu sync.Mutex
	var seen []int
	l := NewLimiter(clk, 3, func(remaining int) {
		mu.Lock()
		seen = append(seen, remaining)
		mu.Unlock()
	})

	l.Begin()
	clk.Advance(3 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	want := []int{3, 2, 1, 0}
	if len(seen) != len(want) {
		t.Fatalf("Expected ticks %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Expected ticks %v, got %v", want, seen)
		}
	}
}

func TestLimiter_BeginAgainAfterClear(t *testing.T) {
	clk := clock.NewFake()
	l := NewLimiter(clk, 2, nil)

	l.Begin()
	clk.Advance(2 * time.Second)
	if l.Active() {
		t.Fatal("Expected clear")
	}
	if !l.Begin() {
		t.Error("Begin() after a completed cooldown should start a new one")
	}
}

func TestLimiter_CloseStopsCountdown(t *testing.T) {
	clk := clock.NewFake()
	l := NewLimiter(clk, 10, nil)

	l.Begin()
	l.Close()
	if l.Active() {
		t.Error("Expected inactive after close")
	}
	if l.Begin() {
		t.Error("Begin() after close should be rejected")
	}
	clk.Advance(20 * time.Second)
}

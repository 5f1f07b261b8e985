package clock

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestTickerDoesNotDrift(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0)}
	ticker := NewTicker(fc, 20*time.Millisecond)

	noSleep := func(time.Duration) {}

	for i := 1; i <= 5; i++ {
		fc.advance(20 * time.Millisecond)
		ticker.Next(noSleep)
	}
	if ticker.Missed() != 0 {
		t.Fatalf("expected no missed ticks on an on-time clock, got %d", ticker.Missed())
	}
}

func TestTickerSkipsAheadWhenLate(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0)}
	ticker := NewTicker(fc, 20*time.Millisecond)

	sleepFn := func(d time.Duration) { fc.advance(d) }

	// Jump far ahead before the first tick: the scheduler must skip
	// straight to the next future slot, not fire a catch-up burst.
	fc.advance(105 * time.Millisecond)
	ticker.Next(sleepFn)

	if ticker.Missed() == 0 {
		t.Fatalf("expected missed ticks to be recorded when waking up late")
	}
}

func TestTickerTargetsAnchoredFromStart(t *testing.T) {
	fc := &fakeClock{now: time.Unix(0, 0)}
	start := fc.now
	ticker := NewTicker(fc, 20*time.Millisecond)

	var sleeps []time.Duration
	sleepFn := func(d time.Duration) {
		sleeps = append(sleeps, d)
		fc.advance(d)
	}

	ticker.Next(sleepFn)
	if fc.now.Before(start.Add(20 * time.Millisecond)) {
		t.Fatalf("tick fired before its anchored target")
	}
}

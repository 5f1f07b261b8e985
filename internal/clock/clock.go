// Package clock provides the monotonic time source and fixed-period tick
// driver used by the send loop. Scheduling is anchored to a start time so
// wake jitter never accumulates into drift.
package clock

import "time"

// Clock is the monotonic time source. A real implementation wraps
// time.Now; tests substitute a fake to drive the engine deterministically.
type Clock interface {
	Now() time.Time
}

// System is the production Clock, backed by the Go runtime's monotonic
// clock reading (time.Now carries a monotonic component on every
// supported platform).
type System struct{}

func (System) Now() time.Time { return time.Now() }

// maxSleep bounds any single blocking wait so a shutdown signal is
// noticed promptly even while waiting for the next tick.
const maxSleep = 5 * time.Millisecond

// Ticker drives a fixed-period, non-drifting schedule: the Nth tick fires
// at start + N*period, never at prevTick + period computed from actual
// wake time. A late wake skips ahead to the next future slot instead of
// firing a catch-up burst, and each skipped slot increments Missed.
type Ticker struct {
	clock  Clock
	period time.Duration
	start  time.Time
	n      uint64
	missed uint64
}

// NewTicker builds a Ticker anchored at clock.Now().
func NewTicker(clock Clock, period time.Duration) *Ticker {
	return &Ticker{
		clock:  clock,
		period: period,
		start:  clock.Now(),
	}
}

// Missed returns the number of tick slots that were skipped because the
// scheduler woke up late, for exposure on the engine's status snapshot.
func (t *Ticker) Missed() uint64 { return t.missed }

// Next blocks (in bounded maxSleep increments, via sleepFn) until the next
// tick slot, then returns. sleepFn is injectable so tests can run the
// scheduler without real wall-clock waits.
func (t *Ticker) Next(sleepFn func(time.Duration)) {
	t.n++
	target := t.start.Add(time.Duration(t.n) * t.period)

	now := t.clock.Now()
	if now.After(target) {
		// Already late for this slot: skip ahead to the next future
		// slot rather than firing immediately and drifting catch-up
		// bursts into the send loop.
		for now.After(target) {
			t.n++
			target = t.start.Add(time.Duration(t.n) * t.period)
			t.missed++
		}
	}

	for {
		now = t.clock.Now()
		remaining := target.Sub(now)
		if remaining <= 0 {
			return
		}
		wait := remaining
		if wait > maxSleep {
			wait = maxSleep
		}
		sleepFn(wait)
	}
}

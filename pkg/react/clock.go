package react

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock wait primitive behind InvalidateLater.
// The contract is "wait at least d, possibly longer": a timer never
// fires early. The default is the system clock; tests install a
// ManualClock to make timer behavior deterministic.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs fn after at least d has elapsed. The returned
	// handle cancels the call if it has not fired yet.
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

// TimerHandle cancels a pending AfterFunc call.
type TimerHandle interface {
	// Stop cancels the call. Returns false if it already fired.
	Stop() bool
}

// systemClock is the real-time Clock backed by package time.
type systemClock struct{}

// SystemClock returns the real-time Clock used by default.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct{ t *time.Timer }

func (t systemTimer) Stop() bool { return t.t.Stop() }

// ManualClock is a Clock whose time only moves when Advance is called.
// Pending AfterFunc callbacks fire synchronously inside Advance, in
// non-decreasing deadline order, on the advancing goroutine. That makes
// every timer-driven property of the graph reproducible in tests.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	waiters []*manualWaiter
}

type manualWaiter struct {
	clock    *ManualClock
	deadline time.Time
	seq      uint64
	fn       func()
	stopped  bool
	fired    bool
}

// NewManualClock returns a ManualClock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers fn to run once the clock has advanced at least d.
// A non-positive d still waits for the next Advance call; nothing fires
// outside Advance.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) TimerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	w := &manualWaiter{
		clock:    c,
		deadline: c.now.Add(d),
		seq:      c.seq,
		fn:       fn,
	}
	c.waiters = append(c.waiters, w)
	return w
}

// Stop cancels the waiter. Returns false if it already fired.
func (w *manualWaiter) Stop() bool {
	w.clock.mu.Lock()
	defer w.clock.mu.Unlock()

	if w.fired || w.stopped {
		return false
	}
	w.stopped = true
	return true
}

// Advance moves the clock forward by d and fires every due callback in
// deadline order. Callbacks run synchronously on the calling goroutine
// and may register new waiters; a newly registered waiter that is
// already due fires within the same Advance call.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		w := c.popDueLocked(target)
		if w == nil {
			break
		}
		if w.deadline.After(c.now) {
			c.now = w.deadline
		}
		c.mu.Unlock()
		w.fn()
		c.mu.Lock()
	}

	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// popDueLocked removes and returns the earliest unfired waiter with a
// deadline at or before target, or nil. Ties break by registration
// order so firing is fully deterministic.
func (c *ManualClock) popDueLocked(target time.Time) *manualWaiter {
	var best *manualWaiter
	bestIdx := -1
	for i, w := range c.waiters {
		if w.stopped || w.fired || w.deadline.After(target) {
			continue
		}
		if best == nil || w.deadline.Before(best.deadline) ||
			(w.deadline.Equal(best.deadline) && w.seq < best.seq) {
			best = w
			bestIdx = i
		}
	}
	if best == nil {
		return nil
	}
	best.fired = true
	c.waiters = append(c.waiters[:bestIdx], c.waiters[bestIdx+1:]...)
	return best
}

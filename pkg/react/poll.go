package react

import (
	"reflect"
	"time"
)

// Poll wraps a caller-supplied pair of functions over an external data
// source, a cheap "has it changed" probe and an expensive "read the
// value", into a derived-like cell. The probe runs once per interval;
// downstream consumers are invalidated, and the read re-run, only when
// the probe's token actually changes. That decouples invalidation
// frequency from read frequency: a source probed every second but
// changing once an hour costs one read per hour.
type Poll[T any] struct {
	value   *Derived[T]
	probe   *Observer
	tick    *Value[pollTick]
	destroy func()
}

// pollTick carries the probe state into the derived read. A new seq
// means the token changed; err is a probe failure surfaced to readers.
type pollTick struct {
	seq uint64
	err error
}

// NewPoll creates a polling cell on the graph. check runs every
// interval (a lower bound, as with all timer delays); read runs only
// when check's token differs from the previous one, compared with
// reflect.DeepEqual. A check error is surfaced to readers until a
// subsequent probe succeeds.
func NewPoll[T any](g *Graph, interval time.Duration, check func() (any, error), read func() (T, error)) *Poll[T] {
	g.checkOpen()

	tick := NewValue(g, pollTick{})

	var lastToken any
	first := true

	probe := NewObserver(g, func() error {
		// Re-arm after the probe so the interval separates probe
		// completions rather than overlapping them.
		defer InvalidateLater(g, interval)

		token, err := check()
		if err != nil {
			Isolate(func() {
				tick.Update(func(t pollTick) pollTick {
					return pollTick{seq: t.seq + 1, err: err}
				})
			})
			return nil
		}

		changed := first || !reflect.DeepEqual(token, lastToken)
		lastToken = token
		wasFirst := first
		first = false

		// A bump after an error clears it even when the token did not
		// move. The very first probe only establishes the baseline;
		// the initial read happens lazily on first Get.
		hadErr := tick.Peek().err != nil
		if (changed && !wasFirst) || hadErr {
			Isolate(func() {
				tick.Update(func(t pollTick) pollTick {
					return pollTick{seq: t.seq + 1}
				})
			})
		}
		return nil
	}, WithObserverName("poll.probe"))

	value := NewDerived(g, func() (T, error) {
		t := tick.Get()
		if t.err != nil {
			var zero T
			return zero, t.err
		}
		return read()
	}).WithName("poll.read")

	p := &Poll[T]{
		value: value,
		probe: probe,
		tick:  tick,
	}
	p.destroy = probe.Destroy
	g.OnCleanup(p.Destroy)
	return p
}

// Get returns the most recently read value, registering a dependency
// for tracked readers. The expensive read re-runs only after the probe
// reported a change (or after a probe error, to surface or clear it).
func (p *Poll[T]) Get() (T, error) {
	return p.value.Get()
}

// Destroy stops the probe. Pending timer invalidations are cancelled;
// the last read value stays available to readers.
func (p *Poll[T]) Destroy() {
	p.destroy()
}

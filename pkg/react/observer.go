package react

import (
	"errors"
	"sync/atomic"
	"time"
)

// Observer is an eager, uncached terminal computation: it has no
// consumers, runs once synchronously at construction to establish its
// dependency set, and re-runs whenever any of its dependencies
// invalidates.
//
// An error returned from the body is fatal to the enclosing graph
// session unless the observer was built with OnError or the error is
// the ErrStop cancellation signal, which just ends the current run.
type Observer struct {
	g  *Graph
	id uint64

	body func() error

	sources sourceSet

	// pending means invalid-and-not-yet-rerun: the observer sits in
	// the scheduler's work queue.
	pending   atomic.Bool
	destroyed atomic.Bool

	// onError, when set, receives body errors instead of the graph's
	// fatal path.
	onError func(error)

	name string
}

// ObserverOption configures an Observer at construction.
type ObserverOption func(*Observer)

// WithObserverName labels the observer for logs and traces.
func WithObserverName(name string) ObserverOption {
	return func(o *Observer) { o.name = name }
}

// OnError downgrades body errors from session-fatal to locally handled:
// fn receives the error and the session keeps running. ErrStop never
// reaches fn.
func OnError(fn func(error)) ObserverOption {
	return func(o *Observer) { o.onError = fn }
}

// NewObserver creates an observer and runs its body once, synchronously,
// before returning. Any invalidations produced by that first run are
// flushed before NewObserver returns.
func NewObserver(g *Graph, body func() error, opts ...ObserverOption) *Observer {
	g.checkOpen()

	o := &Observer{
		g:    g,
		id:   nextID(),
		body: body,
	}
	for _, opt := range opts {
		opt(o)
	}

	g.registerObserver(o)

	leave := g.enter()
	defer leave()

	o.run()
	g.sched.maybeFlush()

	return o
}

// Invalidate schedules the observer for an eager re-run. Scheduling an
// already-pending observer is a no-op.
func (o *Observer) Invalidate() {
	if o.destroyed.Load() || o.g.closed.Load() {
		return
	}
	if o.pending.CompareAndSwap(false, true) {
		o.g.sched.schedule(o)
	}
}

// InvalidateLater asks the graph to invalidate this observer once at
// least d of wall-clock time has passed. See Graph timer semantics on
// InvalidateLater.
func (o *Observer) InvalidateLater(d time.Duration) {
	o.g.timers.schedule(o, d)
}

// run executes the body inside a fresh tracked context, rebuilding the
// dependency set from scratch.
func (o *Observer) run() {
	if o.destroyed.Load() || o.g.failed() {
		return
	}
	o.pending.Store(false)

	o.sources.detach(o.id)

	end := startRunSpan(o.g, kindObserver, o.name, o.id)

	var err error
	runTracked(&frame{graph: o.g, node: o}, func() {
		err = o.body()
	})

	o.g.noteRecompute(kindObserver)
	end(err)

	switch {
	case err == nil:
	case errors.Is(err, ErrStop):
		// Cancellation: stop this run without failing.
	case o.onError != nil:
		o.onError(err)
	default:
		o.g.fatal(&FatalError{NodeID: o.id, Label: o.name, Err: err})
	}
}

// Destroy unsubscribes the observer: it is removed from every
// dependent set and its pending timer invalidations are cancelled.
// A destroyed observer never runs again.
func (o *Observer) Destroy() {
	if o.destroyed.Swap(true) {
		return
	}
	o.sources.detach(o.id)
	o.g.timers.cancel(o.id)
}

// ID returns the observer's unique identifier.
func (o *Observer) ID() uint64 { return o.id }

// addSource implements reader.
func (o *Observer) addSource(s source) { o.sources.add(s) }

// kind implements eagerRunner.
func (o *Observer) kind() nodeKind { return kindObserver }

// label implements eagerRunner.
func (o *Observer) label() string { return o.name }

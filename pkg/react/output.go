package react

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// RenderSink is the rendering collaborator an Output feeds. The graph
// calls exactly one of these per completed run.
type RenderSink interface {
	// RenderValue delivers a successfully produced value.
	RenderValue(name string, value any)

	// RenderError reports a display-level failure. The session keeps
	// running.
	RenderError(name string, err error)

	// RenderClear asks for the previous rendered state to be reset to
	// blank. Sent on cancellation when the output uses the
	// blank-on-cancel policy.
	RenderClear(name string)
}

// Output is an Observer variant whose compute body produces a value for
// a rendering collaborator. Errors from the body are captured and
// reported to the sink as display-level failures, never fatal to the
// session.
//
// An Output may be suspended while its rendered surface is not
// observable: scheduled re-runs are skipped, but a missed invalidation
// is remembered and the output fully refreshes on the next visibility
// transition. Suspension is purely a scheduling optimization.
type Output struct {
	g  *Graph
	id uint64

	name string
	sink RenderSink
	body func() (any, error)

	sources sourceSet

	pending   atomic.Bool
	destroyed atomic.Bool

	mu      sync.Mutex
	visible bool
	missed  bool

	// blankOnCancel resets the rendered state when a run is cancelled
	// via ErrStop; otherwise the previous state is preserved.
	blankOnCancel bool
}

// OutputOption configures an Output at construction.
type OutputOption func(*Output)

// BlankOnCancel makes a cancelled run clear the previous rendered
// state instead of preserving it.
func BlankOnCancel() OutputOption {
	return func(o *Output) { o.blankOnCancel = true }
}

// StartHidden creates the output suspended. The first run is deferred
// until the first SetVisible(true).
func StartHidden() OutputOption {
	return func(o *Output) {
		o.visible = false
		o.missed = true
	}
}

// NewOutput creates an output bound to a rendering sink and, unless
// created hidden, runs it once synchronously to establish its
// dependency set and produce the first render.
func NewOutput(g *Graph, name string, sink RenderSink, body func() (any, error), opts ...OutputOption) *Output {
	g.checkOpen()

	o := &Output{
		g:       g,
		id:      nextID(),
		name:    name,
		sink:    sink,
		body:    body,
		visible: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	g.registerOutput(o)

	if o.visible {
		leave := g.enter()
		defer leave()

		o.exec()
		g.sched.maybeFlush()
	}

	return o
}

// Name returns the output's name, as known to the rendering sink.
func (o *Output) Name() string { return o.name }

// Invalidate schedules the output for an eager re-run, deduplicated
// like any other scheduled node.
func (o *Output) Invalidate() {
	if o.destroyed.Load() || o.g.closed.Load() {
		return
	}
	if o.pending.CompareAndSwap(false, true) {
		o.g.sched.schedule(o)
	}
}

// InvalidateLater asks for this output to be invalidated once at least
// d of wall-clock time has passed.
func (o *Output) InvalidateLater(d time.Duration) {
	o.g.timers.schedule(o, d)
}

// SetVisible reports a visibility transition from the rendering
// collaborator. Turning visible after a missed invalidation triggers a
// full refresh, so suspension never affects eventual consistency.
func (o *Output) SetVisible(visible bool) {
	if o.destroyed.Load() {
		return
	}

	o.mu.Lock()
	o.visible = visible
	refresh := visible && o.missed
	o.missed = o.missed && !visible
	o.mu.Unlock()

	if refresh {
		leave := o.g.enter()
		defer leave()
		o.Invalidate()
		o.g.sched.maybeFlush()
	}
}

// run implements eagerRunner. A suspended output records the missed
// run and returns without executing its body.
func (o *Output) run() {
	if o.destroyed.Load() || o.g.failed() {
		return
	}
	o.pending.Store(false)

	o.mu.Lock()
	if !o.visible {
		o.missed = true
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	o.exec()
}

// exec runs the body inside a fresh tracked context and routes the
// outcome to the sink.
func (o *Output) exec() {
	o.sources.detach(o.id)

	end := startRunSpan(o.g, kindOutput, o.name, o.id)

	var value any
	var err error
	runTracked(&frame{graph: o.g, node: o}, func() {
		value, err = o.body()
	})

	o.g.noteRecompute(kindOutput)
	end(err)

	switch {
	case err == nil:
		o.sink.RenderValue(o.name, value)
	case errors.Is(err, ErrStop):
		if o.blankOnCancel {
			o.sink.RenderClear(o.name)
		}
	default:
		o.g.logger.Warn("output failed", "output", o.name, "error", err)
		o.sink.RenderError(o.name, err)
	}
}

// Destroy unsubscribes the output from every dependent set and cancels
// its pending timer invalidations.
func (o *Output) Destroy() {
	if o.destroyed.Swap(true) {
		return
	}
	o.sources.detach(o.id)
	o.g.timers.cancel(o.id)
}

// ID returns the output's unique identifier.
func (o *Output) ID() uint64 { return o.id }

// addSource implements reader.
func (o *Output) addSource(s source) { o.sources.add(s) }

// kind implements eagerRunner.
func (o *Output) kind() nodeKind { return kindOutput }

// label implements eagerRunner.
func (o *Output) label() string { return o.name }

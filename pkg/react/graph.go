package react

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// Graph is one reactive session: the container for cells, derived
// nodes, observers and outputs, their dependency edges, the flush
// scheduler and the timer queue.
//
// All graph mutation is serialized through the graph's exclusive lock.
// Entry points (cell writes, derived reads, observer construction,
// Dispatch, timer firings) acquire it. Nested operations on the same
// goroutine, such as reads and writes inside a running computation,
// re-enter without blocking. Independent graphs never share state and
// can run concurrently.
type Graph struct {
	id uint64

	// mu is the exclusive-execution lock. Held for the duration of
	// any top-level graph operation.
	mu sync.Mutex

	logger *slog.Logger
	clock  Clock

	sched  *scheduler
	timers *timerQueue

	metrics *Metrics
	tracer  trace.Tracer

	// errHandler receives the fatal error when an observer failure
	// terminates the session.
	errHandler func(error)

	// sanitize redacts fatal error detail before reporting.
	sanitize bool

	// eager nodes registered for teardown.
	nodes   []*Observer
	outputs []*Output
	nodesMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	closed atomic.Bool

	// terminal holds the *FatalError after a session-ending failure.
	terminal   error
	terminalMu sync.Mutex

	// stats
	flushes       atomic.Uint64
	recomputes    atomic.Uint64
	invalidations atomic.Uint64
}

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithLogger sets the graph's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) { g.logger = l }
}

// WithClock sets the time source for InvalidateLater and Poll.
// Defaults to the system clock; tests install a ManualClock.
func WithClock(c Clock) GraphOption {
	return func(g *Graph) { g.clock = c }
}

// WithMetrics attaches Prometheus metrics to the graph. Multiple
// graphs may share one Metrics instance.
func WithMetrics(m *Metrics) GraphOption {
	return func(g *Graph) { g.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer. When set, every flush
// cycle and eager-node run produces a span.
func WithTracer(t trace.Tracer) GraphOption {
	return func(g *Graph) { g.tracer = t }
}

// WithErrorHandler sets the callback that receives the fatal error when
// an observer failure terminates the session. Without a handler the
// error is only logged.
func WithErrorHandler(fn func(error)) GraphOption {
	return func(g *Graph) { g.errHandler = fn }
}

// WithSanitizedErrors redacts fatal error detail before it reaches the
// error handler: collaborators see which node terminated the session
// but not the underlying failure.
func WithSanitizedErrors() GraphOption {
	return func(g *Graph) { g.sanitize = true }
}

// NewGraph creates a new reactive session.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		id:     nextID(),
		logger: slog.Default(),
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.logger = g.logger.With("graph_id", g.id)
	g.sched = newScheduler(g)
	g.timers = newTimerQueue(g)

	return g
}

// ID returns the graph's unique identifier.
func (g *Graph) ID() uint64 { return g.id }

// Clock returns the graph's time source.
func (g *Graph) Clock() Clock { return g.clock }

// IsClosed reports whether the session has ended.
func (g *Graph) IsClosed() bool { return g.closed.Load() }

// Err returns the fatal error that terminated the session, or nil.
func (g *Graph) Err() error {
	g.terminalMu.Lock()
	defer g.terminalMu.Unlock()
	return g.terminal
}

// enter acquires the graph's exclusive lock unless the current
// goroutine already holds it (a nested operation inside a running
// computation). The returned leave func releases what enter acquired
// and restores the previously active graph: a computation on one graph
// may write to a cell of another, and after that nested entry the
// goroutine must still be recognized as holding its own graph.
func (g *Graph) enter() (leave func()) {
	tc := getTrackingContext()
	if tc.activeGraph == g {
		return func() {}
	}

	prev := tc.activeGraph
	g.mu.Lock()
	tc.activeGraph = g
	return func() {
		tc.activeGraph = prev
		g.mu.Unlock()
	}
}

// checkOpen panics when the graph is closed. Creating nodes on a dead
// session is a programmer error.
func (g *Graph) checkOpen() {
	if g.closed.Load() {
		panic(ErrGraphClosed)
	}
}

// registerObserver records an eager node for teardown at Close.
func (g *Graph) registerObserver(o *Observer) {
	g.nodesMu.Lock()
	defer g.nodesMu.Unlock()
	g.nodes = append(g.nodes, o)
}

// registerOutput records an output for teardown at Close.
func (g *Graph) registerOutput(o *Output) {
	g.nodesMu.Lock()
	defer g.nodesMu.Unlock()
	g.outputs = append(g.outputs, o)
}

// OnCleanup registers fn to run when the session ends. Cleanups run in
// reverse registration order. If the graph is already closed, fn runs
// immediately.
func (g *Graph) OnCleanup(fn func()) {
	if g.closed.Load() {
		fn()
		return
	}

	g.cleanupsMu.Lock()
	defer g.cleanupsMu.Unlock()
	g.cleanups = append(g.cleanups, fn)
}

// Dispatch runs fn under the graph's exclusive discipline and flushes
// any invalidations it produced. This is the correct way to mutate
// cells from outside the graph: other goroutines, timers, external
// event sources.
//
//	go func() {
//	    v := fetch()
//	    g.Dispatch(func() { cell.Set(v) })
//	}()
//
// Multiple writes inside one Dispatch collapse into a single flush
// cycle. Dispatch on a closed graph is a no-op.
func (g *Graph) Dispatch(fn func()) {
	if g.closed.Load() {
		g.logger.Warn("dispatch on closed graph, discarding")
		return
	}

	leave := g.enter()
	defer leave()

	fn()
	g.sched.maybeFlush()
}

// Close ends the session: destroys every observer and output, cancels
// pending timer invalidations, and runs cleanups in reverse order.
// Close is idempotent.
func (g *Graph) Close() {
	if g.closed.Swap(true) {
		return
	}

	g.timers.close()

	g.nodesMu.Lock()
	nodes := g.nodes
	outputs := g.outputs
	g.nodes = nil
	g.outputs = nil
	g.nodesMu.Unlock()

	for _, o := range outputs {
		o.Destroy()
	}
	for _, o := range nodes {
		o.Destroy()
	}

	g.cleanupsMu.Lock()
	cleanups := g.cleanups
	g.cleanups = nil
	g.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	g.logger.Info("graph closed",
		"flushes", g.flushes.Load(),
		"recomputes", g.recomputes.Load(),
		"invalidations", g.invalidations.Load())
}

// fatal terminates the session because of an unhandled observer error.
// The error handler receives full detail by default; with
// WithSanitizedErrors it receives a redacted copy.
func (g *Graph) fatal(err *FatalError) {
	g.terminalMu.Lock()
	alreadyFailed := g.terminal != nil
	if !alreadyFailed {
		g.terminal = err
	}
	g.terminalMu.Unlock()

	if alreadyFailed {
		return
	}

	g.logger.Error("session terminated",
		"node_id", err.NodeID,
		"label", err.Label,
		"error", err.Err)
	if g.metrics != nil {
		g.metrics.sessionFailures.Inc()
	}

	reported := error(err)
	if g.sanitize {
		reported = err.sanitized()
	}
	if g.errHandler != nil {
		g.errHandler(reported)
	}

	g.Close()
}

// GraphStats is a point-in-time snapshot of graph activity.
type GraphStats struct {
	Flushes       uint64
	Recomputes    uint64
	Invalidations uint64
	PendingTimers int
}

// Stats returns a snapshot of graph activity counters.
func (g *Graph) Stats() GraphStats {
	return GraphStats{
		Flushes:       g.flushes.Load(),
		Recomputes:    g.recomputes.Load(),
		Invalidations: g.invalidations.Load(),
		PendingTimers: g.timers.pending(),
	}
}

// noteInvalidation bumps the invalidation counters.
func (g *Graph) noteInvalidation() {
	g.invalidations.Add(1)
	if g.metrics != nil {
		g.metrics.invalidationsTotal.Inc()
	}
}

// noteRecompute bumps the recompute counters for the given node kind.
func (g *Graph) noteRecompute(kind nodeKind) {
	g.recomputes.Add(1)
	if g.metrics != nil {
		g.metrics.recomputesTotal.WithLabelValues(kind.String()).Inc()
	}
}

// failed reports whether the session has terminated with an error.
func (g *Graph) failed() bool {
	g.terminalMu.Lock()
	defer g.terminalMu.Unlock()
	return g.terminal != nil
}

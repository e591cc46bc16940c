// Package reflex provides the public API for the Reflex reactive
// runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/reflex-go/reflex"
//
// Usage:
//
//	g := reflex.NewGraph()
//	defer g.Close()
//
//	count := reflex.NewValue(g, 0)
//	doubled := reflex.NewDerived(g, func() (int, error) {
//	    return count.Get() * 2, nil
//	})
//	reflex.NewObserver(g, func() error {
//	    v, _ := doubled.Get()
//	    log.Println("doubled:", v)
//	    return nil
//	})
//	count.Set(21) // observer re-runs, logs "doubled: 42"
package reflex

import (
	"time"

	"github.com/reflex-go/reflex/pkg/react"
)

// =============================================================================
// Graph / session lifecycle (re-export from pkg/react)
// =============================================================================

// Graph is one reactive session: the container for cells, nodes,
// scheduler and timers.
type Graph = react.Graph

// GraphOption configures a Graph at construction.
type GraphOption = react.GraphOption

// NewGraph creates a new reactive session.
var NewGraph = react.NewGraph

// Graph options.
var (
	WithLogger          = react.WithLogger
	WithClock           = react.WithClock
	WithMetrics         = react.WithMetrics
	WithTracer          = react.WithTracer
	WithErrorHandler    = react.WithErrorHandler
	WithSanitizedErrors = react.WithSanitizedErrors
)

// GraphStats is a point-in-time snapshot of graph activity.
type GraphStats = react.GraphStats

// =============================================================================
// Reactive primitives
// =============================================================================

// Value is a mutable reactive cell.
type Value[T any] = react.Value[T]

// Values is a named cell collection with reference semantics.
type Values = react.Values

// Derived is a lazy, cached reactive computation.
type Derived[T any] = react.Derived[T]

// Observer is an eager terminal computation.
type Observer = react.Observer

// Output is an Observer feeding a rendering collaborator.
type Output = react.Output

// Poll wraps a check/read pair over an external data source.
type Poll[T any] = react.Poll[T]

// NewValue creates a cell on the given graph.
func NewValue[T any](g *Graph, initial T) *Value[T] {
	return react.NewValue(g, initial)
}

// NewValues creates an empty named cell collection.
var NewValues = react.NewValues

// NewDerived creates a lazy cached computation.
func NewDerived[T any](g *Graph, compute func() (T, error)) *Derived[T] {
	return react.NewDerived(g, compute)
}

// NewObserver creates an eager observer and runs it once synchronously.
var NewObserver = react.NewObserver

// NewOutput creates an output bound to a rendering sink.
var NewOutput = react.NewOutput

// NewPoll creates a polling cell from a check/read pair.
func NewPoll[T any](g *Graph, interval time.Duration, check func() (any, error), read func() (T, error)) *Poll[T] {
	return react.NewPoll(g, interval, check, read)
}

// Observer and output options.
var (
	WithObserverName = react.WithObserverName
	OnError          = react.OnError
	BlankOnCancel    = react.BlankOnCancel
	StartHidden      = react.StartHidden
)

// RenderSink is the rendering collaborator an Output feeds.
type RenderSink = react.RenderSink

// =============================================================================
// Tracking control
// =============================================================================

// Isolate runs fn with dependency tracking suppressed.
var Isolate = react.Isolate

// IsolateValue is the value-returning variant of Isolate.
func IsolateValue[T any](fn func() T) T {
	return react.IsolateValue(fn)
}

// InvalidateLater re-invalidates the currently executing node after at
// least d of wall-clock time.
var InvalidateLater = react.InvalidateLater

// =============================================================================
// Clock
// =============================================================================

// Clock supplies the wall-clock wait primitive behind InvalidateLater.
type Clock = react.Clock

// ManualClock is a deterministic Clock for tests.
type ManualClock = react.ManualClock

var (
	SystemClock    = react.SystemClock
	NewManualClock = react.NewManualClock
)

// =============================================================================
// Errors
// =============================================================================

// ErrStop is the cancellation signal: stop the current execution
// without failing.
var ErrStop = react.ErrStop

// ErrGraphClosed reports an operation on an ended session.
var ErrGraphClosed = react.ErrGraphClosed

// Stop wraps ErrStop with a reason.
var Stop = react.Stop

// FatalError wraps an error that terminated a graph session.
type FatalError = react.FatalError

// =============================================================================
// Metrics
// =============================================================================

// Metrics holds the Prometheus instruments for one or more graphs.
type Metrics = react.Metrics

// NewMetrics registers the reactive core's Prometheus instruments.
var NewMetrics = react.NewMetrics

// Metrics options.
var (
	WithNamespace   = react.WithNamespace
	WithSubsystem   = react.WithSubsystem
	WithConstLabels = react.WithConstLabels
	WithBuckets     = react.WithBuckets
	WithRegistry    = react.WithRegistry
)

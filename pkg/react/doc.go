// Package react implements the reactive dependency-tracking core of
// Reflex: a graph of interdependent computations that re-executes only
// the minimum necessary work when inputs change.
//
// # Core Types
//
// Value[T] is a mutable reactive cell:
//
//	count := react.NewValue(g, 0)
//	v := count.Get() // read (registers an edge inside tracked code)
//	count.Set(1)     // write (invalidates dependents, flushes)
//
// Derived[T] is a lazy, cached computation. Its outcome, value or
// error, is cached and replayed until a dependency invalidates it:
//
//	doubled := react.NewDerived(g, func() (int, error) {
//	    return count.Get() * 2, nil
//	})
//
// Observer is an eager terminal computation that re-runs whenever a
// dependency changes; Output is an Observer whose result is handed to
// a rendering collaborator and whose failures stay display-level.
//
// # Dependency Discovery
//
// Edges are discovered, not declared: while a node executes, every
// cell or derived node it reads registers itself as a dependency. The
// set is rebuilt from scratch on each run, so the graph always
// reflects exactly the last execution. Isolate suppresses discovery
// for a delimited scope.
//
// # Scheduling
//
// Writes invalidate eagerly and push-based: each dependent is marked
// stale and eager nodes join a deduplicated FIFO work queue, drained
// in flush cycles until the graph is quiescent. Lazy nodes recompute
// only when read. InvalidateLater re-invalidates a node after a
// wall-clock delay (a lower bound); combined with Poll this turns
// the same machinery into a polling and animation trigger.
//
// # Sessions
//
// A Graph is one session: all of its state is private, all mutation is
// serialized through its exclusive-execution lock, and Close tears
// down observers, outputs, timers and cleanups. Concurrency across
// sessions comes from isolation, not sharing.
package react

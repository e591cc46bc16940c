package react

import (
	"runtime"
	"sync"
)

// frame is one active reader context. A frame is pushed around every
// tracked execution; reads that happen while a frame is active register
// the read target as a dependency of frame.node.
type frame struct {
	graph *Graph

	// node is the reader currently executing.
	node reader

	// readOnly marks contexts in which cell writes are a programmer
	// error (Derived computations). Observer and Output bodies may
	// write; Isolate escapes the restriction.
	readOnly bool
}

// trackingContext holds the reactive state for a goroutine: the current
// reader frame and the graph whose exclusive lock this goroutine holds.
type trackingContext struct {
	// current is the active reader frame. nil means reads do not
	// create dependency edges.
	current *frame

	// activeGraph is the graph currently executing on this goroutine.
	// Used to make graph entry re-entrant within one execution.
	activeGraph *Graph

	// depth counts tracked executions on the stack. Unlike current it
	// is not masked by Isolate, so it answers "is any computation
	// running right now" rather than "are reads tracked right now".
	depth int
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID extracts the current goroutine's ID from the runtime
// stack header ("goroutine <id> ..."). Implementation detail; never
// exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating it if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}

	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

// currentFrame returns the active reader frame, or nil when no tracked
// execution is in progress on this goroutine.
func currentFrame() *frame {
	return getTrackingContext().current
}

// setCurrentFrame installs f as the active frame and returns the
// previous one so it can be restored.
func setCurrentFrame(f *frame) *frame {
	tc := getTrackingContext()
	old := tc.current
	tc.current = f
	return old
}

// runTracked executes body with f as the active reader frame. Reads of
// cells and derived nodes inside body register dependency edges against
// f.node. The previous frame is restored on every exit path.
func runTracked(f *frame, body func()) {
	tc := getTrackingContext()
	tc.depth++
	old := setCurrentFrame(f)
	defer func() {
		setCurrentFrame(old)
		tc.depth--
	}()
	body()
}

// inTrackedExecution reports whether any tracked computation is on the
// current goroutine's stack, including under Isolate.
func inTrackedExecution() bool {
	return getTrackingContext().depth > 0
}

// Isolate runs fn with dependency tracking suppressed: reads performed
// inside fn return current values but register no edges. Use it to let
// an observer read and write a cell it also depends on without
// retriggering itself.
//
// Example:
//
//	react.NewObserver(g, func() error {
//	    _ = trigger.Get() // tracked
//	    react.Isolate(func() {
//	        count.Set(count.Get() + 1) // no edge, no self-retrigger
//	    })
//	    return nil
//	})
func Isolate(fn func()) {
	old := setCurrentFrame(nil)
	defer setCurrentFrame(old)
	fn()
}

// IsolateValue runs fn with dependency tracking suppressed and returns
// its result. Value-returning variant of Isolate.
func IsolateValue[T any](fn func() T) T {
	old := setCurrentFrame(nil)
	defer setCurrentFrame(old)
	return fn()
}

// registerRead records an edge between the active frame's node and the
// given source, in both directions. No-op when no frame is active.
func registerRead(g *Graph, src source) {
	f := currentFrame()
	if f == nil {
		return
	}
	if f.graph != g {
		panic("react: read crosses graph boundary; each node belongs to exactly one graph")
	}

	src.addDependent(f.node)
	f.node.addSource(src)
}

// checkWritable panics when the active frame forbids cell writes.
// Derived computations are read-only; writing from one is a programmer
// error and fails immediately rather than corrupting the graph.
func checkWritable(g *Graph) {
	f := currentFrame()
	if f != nil && f.graph == g && f.readOnly {
		panic("react: cell write inside a derived computation; derived nodes are read-only")
	}
}

package react

import "sync"

// Value is a single mutable reactive storage location. Reading it
// inside a tracked computation registers a dependency edge; writing it
// invalidates every current dependent and triggers a flush cycle.
//
// Writes invalidate unconditionally: setting a cell to a value equal to
// the one it already holds still invalidates dependents. Callers that
// want equality short-circuiting opt in with WithEquals.
type Value[T any] struct {
	g  *Graph
	id uint64

	deps depSet

	mu      sync.RWMutex
	value   T
	version uint64

	// equal, when set, suppresses invalidation for writes whose new
	// value compares equal to the current one.
	equal func(T, T) bool
}

// NewValue creates a cell on the given graph with an initial value.
func NewValue[T any](g *Graph, initial T) *Value[T] {
	g.checkOpen()
	return &Value[T]{
		g:     g,
		id:    nextID(),
		value: initial,
	}
}

// WithEquals configures the cell with an equality function: writes
// whose new value compares equal to the current one no longer
// invalidate dependents. Returns the cell for chaining.
func (v *Value[T]) WithEquals(fn func(T, T) bool) *Value[T] {
	v.equal = fn
	return v
}

// Get returns the current value. Inside an active tracking context it
// also registers this cell as a dependency of the executing node;
// outside any context it is a plain read.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	value := v.value
	v.mu.RUnlock()

	registerRead(v.g, v)

	return value
}

// Peek returns the current value without registering a dependency,
// regardless of tracking context.
func (v *Value[T]) Peek() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores a new value, bumps the cell's version, invalidates every
// dependent and triggers a flush cycle if none is in progress.
// Dependents are cleared on invalidation and re-register on their next
// run. Writing from inside a derived computation panics.
func (v *Value[T]) Set(value T) {
	checkWritable(v.g)
	if v.g.closed.Load() {
		v.g.logger.Warn("write on closed graph, discarding", "cell_id", v.id)
		return
	}

	leave := v.g.enter()
	defer leave()

	v.mu.Lock()
	if v.equal != nil && v.equal(v.value, value) {
		v.mu.Unlock()
		return
	}
	v.value = value
	v.version++
	v.mu.Unlock()

	v.invalidateDependents()
	v.g.sched.maybeFlush()
}

// setQuiet stores a new value and invalidates dependents without
// starting a flush cycle. Internal bookkeeping path for writes that
// happen inside a running computation: the entry point that drove the
// computation owns the flush, and starting one here would re-run
// readers while the computation is still on the stack.
func (v *Value[T]) setQuiet(value T) {
	leave := v.g.enter()
	defer leave()

	v.mu.Lock()
	v.value = value
	v.version++
	v.mu.Unlock()

	v.invalidateDependents()
}

// Update applies fn to the current value and stores the result.
// Equivalent to Set(fn(Get())) without registering a read dependency.
func (v *Value[T]) Update(fn func(T) T) {
	v.Set(fn(v.Peek()))
}

// Version returns how many writes the cell has absorbed. Bumped on
// every effective Set.
func (v *Value[T]) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// ID returns the cell's unique identifier.
func (v *Value[T]) ID() uint64 { return v.id }

// invalidateDependents hands the full dependent set to Invalidate and
// clears it.
func (v *Value[T]) invalidateDependents() {
	for _, d := range v.deps.take() {
		v.g.noteInvalidation()
		d.Invalidate()
	}
}

// addDependent implements source.
func (v *Value[T]) addDependent(d Dependent) { v.deps.add(d) }

// removeDependent implements source.
func (v *Value[T]) removeDependent(id uint64) { v.deps.remove(id) }

package react

import "sync"

// Derived is a lazy, cached reactive computation. It reads cells and
// other derived nodes, caches the outcome (value or error) and
// recomputes only when a reader asks for its value after an
// invalidation. The dependency set is rebuilt from scratch on every
// recompute; stale edges from earlier runs are dropped first, so a
// branch the computation no longer reads can never invalidate it.
type Derived[T any] struct {
	g  *Graph
	id uint64

	compute func() (T, error)

	deps    depSet    // nodes that read this one
	sources sourceSet // cells/nodes this one read last run

	mu    sync.Mutex
	value T
	err   error
	valid bool

	// computing guards against a computation reading itself.
	computing bool

	name string
}

// NewDerived creates a derived node on the graph. compute does not run
// until the first Get.
func NewDerived[T any](g *Graph, compute func() (T, error)) *Derived[T] {
	g.checkOpen()
	return &Derived[T]{
		g:       g,
		id:      nextID(),
		compute: compute,
	}
}

// WithName labels the node for logs and traces. Returns the node for
// chaining.
func (d *Derived[T]) WithName(name string) *Derived[T] {
	d.name = name
	return d
}

// Get returns the cached outcome, recomputing first if the node is
// invalid. A cached error is returned verbatim on every read until the
// node is invalidated and recomputes. Inside a tracking context the
// reader registers a dependency on this node whether or not a
// recompute happens.
func (d *Derived[T]) Get() (T, error) {
	registerRead(d.g, d)

	leave := d.g.enter()
	defer leave()

	d.mu.Lock()
	if d.valid {
		value, err := d.value, d.err
		d.mu.Unlock()
		return value, err
	}
	if d.computing {
		d.mu.Unlock()
		panic("react: derived node reads itself; dependency cycle")
	}
	d.computing = true
	d.mu.Unlock()

	d.recompute()

	// A recompute can enqueue eager work without flushing (lazy key
	// creation in Values). At top level nothing else will drain it.
	if !inTrackedExecution() {
		d.g.sched.maybeFlush()
	}

	d.mu.Lock()
	value, err := d.value, d.err
	d.mu.Unlock()
	return value, err
}

// recompute drops stale edges, runs compute in a fresh read-only
// tracked context, and caches the outcome. Dependencies registered
// before a failure point are kept: a computation that read a cell and
// then failed still recomputes when that cell changes.
func (d *Derived[T]) recompute() {
	defer func() {
		d.mu.Lock()
		d.computing = false
		d.mu.Unlock()
	}()

	d.sources.detach(d.id)

	var value T
	var err error
	runTracked(&frame{graph: d.g, node: d, readOnly: true}, func() {
		value, err = d.compute()
	})

	d.mu.Lock()
	d.value = value
	d.err = err
	d.valid = true
	d.mu.Unlock()

	d.g.noteRecompute(kindDerived)
}

// Invalidate marks the cached outcome stale and cascades to dependents.
// The node itself does not recompute until the next Get, but its
// dependents are handed over immediately so eager nodes
// downstream get scheduled within the current flush cycle.
func (d *Derived[T]) Invalidate() {
	d.mu.Lock()
	wasValid := d.valid
	d.valid = false
	d.mu.Unlock()

	if !wasValid {
		return
	}

	for _, dep := range d.deps.take() {
		d.g.noteInvalidation()
		dep.Invalidate()
	}
}

// ID returns the node's unique identifier.
func (d *Derived[T]) ID() uint64 { return d.id }

// addSource implements reader.
func (d *Derived[T]) addSource(s source) { d.sources.add(s) }

// addDependent implements source.
func (d *Derived[T]) addDependent(dep Dependent) { d.deps.add(dep) }

// removeDependent implements source.
func (d *Derived[T]) removeDependent(id uint64) { d.deps.remove(id) }

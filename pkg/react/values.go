package react

import (
	"sort"
	"sync"
)

// Values is a named collection of cells sharing one reference identity:
// every copy of a *Values handle aliases the same storage, so a write
// through any alias is visible through all of them. Dependency tracking
// is per key: reading "a" does not depend on writes to "b".
//
// Keys are created lazily on first Get or Set. The collection lives for
// the duration of its graph session.
type Values struct {
	g *Graph

	mu    sync.Mutex
	cells map[string]*Value[any]

	// names is bumped whenever a new key appears, so Names() readers
	// are invalidated by key creation but not by per-key writes.
	names *Value[int]
}

// NewValues creates an empty named cell collection on the graph.
func NewValues(g *Graph) *Values {
	g.checkOpen()
	return &Values{
		g:     g,
		cells: make(map[string]*Value[any]),
		names: NewValue(g, 0),
	}
}

// cell returns the cell for name, creating it if needed.
func (v *Values) cell(name string) *Value[any] {
	v.mu.Lock()
	c, ok := v.cells[name]
	if !ok {
		c = NewValue[any](v.g, nil)
		v.cells[name] = c
	}
	v.mu.Unlock()

	if !ok {
		// Key creation is bookkeeping: it must work even inside a
		// read-only computation that reads a never-set key, and it
		// must not start a flush while that computation is still on
		// the stack. At top level the queued Names readers are
		// drained here; otherwise the enclosing entry point flushes
		// when the computation completes.
		v.names.setQuiet(v.names.Peek() + 1)
		if !inTrackedExecution() {
			v.g.sched.maybeFlush()
		}
	}
	return c
}

// Get returns the value stored under name (nil if never set) and, when
// a tracking context is active, registers a dependency on that key.
func (v *Values) Get(name string) any {
	return v.cell(name).Get()
}

// Set stores a value under name, invalidating that key's dependents.
func (v *Values) Set(name string, value any) {
	v.cell(name).Set(value)
}

// Has reports whether name has a cell, without creating one and
// without registering a dependency.
func (v *Values) Has(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.cells[name]
	return ok
}

// Names returns the sorted key set. Inside a tracking context the
// reader is invalidated when a new key appears.
func (v *Values) Names() []string {
	_ = v.names.Get()

	v.mu.Lock()
	defer v.mu.Unlock()

	names := make([]string, 0, len(v.cells))
	for name := range v.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

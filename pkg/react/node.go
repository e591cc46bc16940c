package react

import "sync"

// Dependent is anything that can be notified when one of its dependencies
// changes. It is implemented by Derived, Observer and Output.
type Dependent interface {
	// Invalidate marks the node stale.
	// Derived nodes defer recomputation until the next Get.
	// Observers and Outputs schedule an eager re-run.
	Invalidate()

	// ID returns a unique identifier for this node.
	// Used for deduplication in the scheduler and for edge bookkeeping.
	ID() uint64
}

// source is the read side of a dependency edge: anything a tracked
// computation can read and register an edge against. Implemented by
// Value, Values keys and Derived.
type source interface {
	addDependent(d Dependent)
	removeDependent(id uint64)
}

// reader is a Dependent that rebuilds its dependency set on every run.
// The tracking context uses it to maintain the mirrored edge sets:
// dependents on the target, dependencies on the reader.
type reader interface {
	Dependent
	addSource(s source)
}

// nodeKind tags the re-run policy of a node.
type nodeKind uint8

const (
	kindDerived nodeKind = iota + 1
	kindObserver
	kindOutput
)

// String returns the label used in logs, metrics and traces.
func (k nodeKind) String() string {
	switch k {
	case kindDerived:
		return "derived"
	case kindObserver:
		return "observer"
	case kindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// depSet holds the dependents of a source in registration order,
// deduplicated by node ID. Embedded in Value and Derived.
type depSet struct {
	mu   sync.Mutex
	deps []Dependent
}

// add registers a dependent. Re-registering the same node is a no-op.
func (s *depSet) add(d Dependent) {
	if d == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := d.ID()
	for _, existing := range s.deps {
		if existing.ID() == id {
			return
		}
	}
	s.deps = append(s.deps, d)
}

// remove drops the dependent with the given ID, preserving order.
func (s *depSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.deps {
		if existing.ID() == id {
			s.deps = append(s.deps[:i], s.deps[i+1:]...)
			return
		}
	}
}

// take returns the current dependents and clears the set.
// Dependents must re-register on their next run, so invalidation
// hands the whole set over in one step.
func (s *depSet) take() []Dependent {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps := s.deps
	s.deps = nil
	return deps
}

// size reports the current number of dependents.
func (s *depSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deps)
}

// sourceSet holds the dependencies of a reader. The set is cleared and
// rebuilt on every run so stale edges from prior runs cannot deliver
// invalidations.
type sourceSet struct {
	mu      sync.Mutex
	sources []source
}

// add records a source, deduplicated by identity.
func (s *sourceSet) add(src source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sources {
		if existing == src {
			return
		}
	}
	s.sources = append(s.sources, src)
}

// detach removes the reader from every recorded source's dependent set
// and clears the set. Called before every re-run and on destroy.
func (s *sourceSet) detach(id uint64) {
	s.mu.Lock()
	sources := s.sources
	s.sources = nil
	s.mu.Unlock()

	for _, src := range sources {
		src.removeDependent(id)
	}
}

package react

import (
	"sync"
)

// eagerRunner is a node with an eager re-run policy: Observer or
// Output. The scheduler queues these; lazy nodes are never queued,
// since invalidation only marks them stale and their recompute waits
// for the next Get.
type eagerRunner interface {
	Dependent
	run()
	kind() nodeKind
	label() string
}

// scheduler holds the work queue of invalid-and-not-yet-rerun eager
// nodes and drains it in flush cycles. Scheduling an already-queued
// node is a no-op, so any number of invalidations between two runs
// collapse into one re-run.
type scheduler struct {
	g *Graph

	mu       sync.Mutex
	queue    []eagerRunner
	queued   map[uint64]struct{}
	flushing bool
}

func newScheduler(g *Graph) *scheduler {
	return &scheduler{
		g:      g,
		queued: make(map[uint64]struct{}),
	}
}

// schedule appends n to the work queue in FIFO order, deduplicated by
// node ID.
func (s *scheduler) schedule(n eagerRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := n.ID()
	if _, ok := s.queued[id]; ok {
		return
	}
	s.queued[id] = struct{}{}
	s.queue = append(s.queue, n)

	if s.g.metrics != nil {
		s.g.metrics.queueDepth.Set(float64(len(s.queue)))
	}
}

// maybeFlush starts a flush cycle unless one is already in progress.
// A write that lands mid-flush only enqueues; the running cycle drains
// it before completing.
func (s *scheduler) maybeFlush() {
	s.mu.Lock()
	if s.flushing || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	s.flush()
}

// flush drains the work queue until it is empty. Each popped node
// re-runs, which may transitively enqueue more nodes into the same
// cycle. The flush never waits: a node that unconditionally retriggers
// itself loops forever, and breaking that loop is the author's job
// (via Isolate), not the scheduler's.
func (s *scheduler) flush() {
	end := startFlushSpan(s.g)
	drained := 0

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.g.failed() {
			s.queue = nil
			s.queued = make(map[uint64]struct{})
			s.flushing = false
			if s.g.metrics != nil {
				s.g.metrics.queueDepth.Set(0)
			}
			s.mu.Unlock()
			break
		}
		n := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, n.ID())
		if s.g.metrics != nil {
			s.g.metrics.queueDepth.Set(float64(len(s.queue)))
		}
		s.mu.Unlock()

		n.run()
		drained++
	}

	s.g.flushes.Add(1)
	if s.g.metrics != nil {
		s.g.metrics.flushesTotal.Inc()
		s.g.metrics.flushDrained.Observe(float64(drained))
	}
	end(drained)
}

// pendingCount reports the current queue depth.
func (s *scheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

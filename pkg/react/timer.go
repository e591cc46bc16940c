package react

import (
	"container/heap"
	"sync"
	"time"
)

// InvalidateLater asks the graph to invalidate the currently executing
// node once at least d of wall-clock time has passed. It must be called
// from inside a reactive computation (an observer, output or derived
// body); outside one it panics with ErrNotReactive.
//
// The delay is a lower bound, never a guarantee: the node is
// invalidated no earlier than d after the call, and possibly later if
// the session is busy. Calling it on every run gives a node a steady
// re-execution rhythm:
//
//	react.NewObserver(g, func() error {
//	    poll()                       // do the work first
//	    react.InvalidateLater(g, time.Second) // then re-arm
//	    return nil
//	})
//
// Re-arming before the work runs instead makes the delay overlap the
// work; if the work takes longer than d the node is due again the
// moment it finishes and the period collapses toward zero.
func InvalidateLater(g *Graph, d time.Duration) {
	f := currentFrame()
	if f == nil || f.graph != g {
		panic(ErrNotReactive)
	}
	g.timers.schedule(f.node, d)
}

// pendingInvalidation is one delayed invalidation request, ordered by
// readyAt, with insertion order breaking ties.
type pendingInvalidation struct {
	node    Dependent
	readyAt time.Time
	seq     uint64
	index   int
}

// pendingHeap is a min-heap of pending invalidations keyed on readyAt.
type pendingHeap []*pendingInvalidation

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].readyAt.Equal(h[j].readyAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].readyAt.Before(h[j].readyAt)
}

func (h pendingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pendingHeap) Push(x any) {
	p := x.(*pendingInvalidation)
	p.index = len(*h)
	*h = append(*h, p)
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return p
}

// timerQueue holds the graph's delayed invalidations and keeps exactly
// one clock timer armed, for the earliest readyAt. When it fires, every
// due entry is delivered in non-decreasing readyAt order through the
// normal invalidate-and-flush path.
type timerQueue struct {
	g *Graph

	mu     sync.Mutex
	heap   pendingHeap
	seq    uint64
	armed  TimerHandle
	closed bool
}

func newTimerQueue(g *Graph) *timerQueue {
	return &timerQueue{g: g}
}

// schedule enqueues (node, now+d) and re-arms the clock if the new
// entry is the earliest.
func (q *timerQueue) schedule(n Dependent, d time.Duration) {
	if d < 0 {
		d = 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.seq++
	p := &pendingInvalidation{
		node:    n,
		readyAt: q.g.clock.Now().Add(d),
		seq:     q.seq,
	}
	heap.Push(&q.heap, p)

	if q.g.metrics != nil {
		q.g.metrics.timersPending.Set(float64(q.heap.Len()))
	}

	if q.heap[0] == p {
		q.rearmLocked()
	}
}

// cancel drops every pending invalidation for the given node ID.
// Called when an observer or output is destroyed.
func (q *timerQueue) cancel(nodeID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := false
	for i := 0; i < q.heap.Len(); {
		if q.heap[i].node.ID() == nodeID {
			heap.Remove(&q.heap, i)
			removed = true
			continue
		}
		i++
	}
	if removed {
		if q.g.metrics != nil {
			q.g.metrics.timersPending.Set(float64(q.heap.Len()))
		}
		q.rearmLocked()
	}
}

// pending reports the number of queued delayed invalidations.
func (q *timerQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// close cancels the armed timer and drops all pending entries.
func (q *timerQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.armed != nil {
		q.armed.Stop()
		q.armed = nil
	}
	q.heap = nil
}

// rearmLocked points the single clock timer at the earliest entry.
// Caller holds q.mu.
func (q *timerQueue) rearmLocked() {
	if q.armed != nil {
		q.armed.Stop()
		q.armed = nil
	}
	if q.closed || q.heap.Len() == 0 {
		return
	}

	d := q.heap[0].readyAt.Sub(q.g.clock.Now())
	if d < 0 {
		d = 0
	}
	q.armed = q.g.clock.AfterFunc(d, q.fire)
}

// fire delivers every due entry in readyAt order, invalidating each
// node and flushing, then re-arms for the next earliest entry. Runs on
// the clock's timer goroutine for the system clock, or synchronously
// inside ManualClock.Advance in tests.
func (q *timerQueue) fire() {
	for {
		q.mu.Lock()
		if q.closed || q.heap.Len() == 0 {
			q.armed = nil
			if !q.closed {
				q.rearmLocked()
			}
			q.mu.Unlock()
			return
		}
		now := q.g.clock.Now()
		if q.heap[0].readyAt.After(now) {
			q.rearmLocked()
			q.mu.Unlock()
			return
		}
		p := heap.Pop(&q.heap).(*pendingInvalidation)
		if q.g.metrics != nil {
			q.g.metrics.timersPending.Set(float64(q.heap.Len()))
		}
		q.mu.Unlock()

		leave := q.g.enter()
		p.node.Invalidate()
		q.g.sched.maybeFlush()
		leave()
	}
}

package react

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGraphIndependentSessions(t *testing.T) {
	g1, _ := newTestGraph()
	defer g1.Close()
	g2, _ := newTestGraph()
	defer g2.Close()

	if g1.ID() == g2.ID() {
		t.Fatal("graphs share an ID")
	}

	a := NewValue(g1, 1)
	b := NewValue(g2, 1)

	runs1, runs2 := 0, 0
	NewObserver(g1, func() error { _ = a.Get(); runs1++; return nil })
	NewObserver(g2, func() error { _ = b.Get(); runs2++; return nil })

	a.Set(2)
	if runs1 != 2 || runs2 != 1 {
		t.Errorf("runs = %d/%d, want 2/1 (no cross-graph invalidation)", runs1, runs2)
	}
}

func TestGraphCrossBoundaryReadPanics(t *testing.T) {
	g1, _ := newTestGraph()
	defer g1.Close()
	g2, _ := newTestGraph()
	defer g2.Close()

	foreign := NewValue(g2, 1)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on cross-graph read")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "boundary") {
			t.Errorf("panic = %v, want boundary violation message", r)
		}
	}()
	NewObserver(g1, func() error {
		_ = foreign.Get()
		return nil
	})
}

func TestGraphNestedWriteToOtherGraph(t *testing.T) {
	gA, _ := newTestGraph()
	defer gA.Close()
	gB, _ := newTestGraph()
	defer gB.Close()

	trigger := NewValue(gA, 0)
	back := NewValue(gA, 0)
	other := NewValue(gB, 0)

	// Cross-graph writes are legal (only reads are confined to one
	// graph); after one, the observer must still re-enter its own
	// graph without blocking.
	NewObserver(gA, func() error {
		_ = trigger.Get()
		Isolate(func() {
			other.Set(other.Peek() + 1)
			back.Set(back.Peek() + 1)
		})
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		trigger.Set(1)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("observer hung re-entering its own graph after a nested write to another graph")
	}

	if other.Peek() != 2 {
		t.Errorf("other = %d, want 2", other.Peek())
	}
	if back.Peek() != 2 {
		t.Errorf("back = %d, want 2", back.Peek())
	}
}

func TestGraphDispatchCoalesces(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	a := NewValue(g, 0)
	b := NewValue(g, 0)
	runs := 0
	NewObserver(g, func() error {
		_ = a.Get()
		_ = b.Get()
		runs++
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Dispatch(func() {
			a.Set(1)
			b.Set(2)
		})
	}()
	<-done

	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestGraphDispatchAfterClose(t *testing.T) {
	g, _ := newTestGraph()
	cell := NewValue(g, 0)
	g.Close()

	g.Dispatch(func() { cell.Set(1) })
	if cell.Peek() != 0 {
		t.Errorf("value = %d, want 0 (dispatch discarded)", cell.Peek())
	}
}

func TestGraphCleanupOrder(t *testing.T) {
	g, _ := newTestGraph()

	var order []string
	g.OnCleanup(func() { order = append(order, "first") })
	g.OnCleanup(func() { order = append(order, "second") })
	g.OnCleanup(func() { order = append(order, "third") })

	g.Close()

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestGraphCleanupAfterCloseRunsImmediately(t *testing.T) {
	g, _ := newTestGraph()
	g.Close()

	ran := false
	g.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup registered after close must run immediately")
	}
}

func TestGraphCloseIdempotent(t *testing.T) {
	g, _ := newTestGraph()

	runs := 0
	g.OnCleanup(func() { runs++ })

	g.Close()
	g.Close()
	if runs != 1 {
		t.Errorf("cleanup runs = %d, want 1", runs)
	}
}

func TestGraphNodeCreationAfterClosePanics(t *testing.T) {
	g, _ := newTestGraph()
	g.Close()

	defer func() {
		if r := recover(); r != ErrGraphClosed {
			t.Errorf("recover = %v, want ErrGraphClosed", r)
		}
	}()
	NewValue(g, 0)
}

func TestGraphSanitizedErrors(t *testing.T) {
	secret := errors.New("db password rejected")

	var got error
	g, _ := newTestGraph(WithSanitizedErrors(), WithErrorHandler(func(err error) {
		got = err
	}))

	cell := NewValue(g, 0)
	NewObserver(g, func() error {
		if cell.Get() > 0 {
			return secret
		}
		return nil
	}, WithObserverName("loader"))

	cell.Set(1)

	if got == nil {
		t.Fatal("error handler not invoked")
	}
	if errors.Is(got, secret) {
		t.Error("sanitized error still wraps the cause")
	}
	if strings.Contains(got.Error(), "password") {
		t.Errorf("sanitized error leaks detail: %v", got)
	}
	if !strings.Contains(got.Error(), "loader") {
		t.Errorf("sanitized error should keep the node label: %v", got)
	}
}

func TestGraphFirstFatalWins(t *testing.T) {
	calls := 0
	g, _ := newTestGraph(WithErrorHandler(func(err error) {
		calls++
	}))

	cell := NewValue(g, 0)
	NewObserver(g, func() error {
		if cell.Get() > 0 {
			return errors.New("one")
		}
		return nil
	})
	NewObserver(g, func() error {
		if cell.Get() > 0 {
			return errors.New("two")
		}
		return nil
	})

	cell.Set(1)
	if calls != 1 {
		t.Errorf("error handler calls = %d, want 1", calls)
	}
}

func TestGraphStatsCounters(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	cell := NewValue(g, 0)
	NewObserver(g, func() error {
		_ = cell.Get()
		return nil
	})

	before := g.Stats()
	cell.Set(1)
	after := g.Stats()

	if after.Recomputes <= before.Recomputes {
		t.Errorf("Recomputes did not increase: %d -> %d", before.Recomputes, after.Recomputes)
	}
	if after.Invalidations <= before.Invalidations {
		t.Errorf("Invalidations did not increase: %d -> %d", before.Invalidations, after.Invalidations)
	}
	if after.Flushes <= before.Flushes {
		t.Errorf("Flushes did not increase: %d -> %d", before.Flushes, after.Flushes)
	}
}

func TestGraphConcurrentDispatch(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	cell := NewValue(g, 0)
	total := 0
	NewObserver(g, func() error {
		total = cell.Get()
		return nil
	})

	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			g.Dispatch(func() {
				cell.Set(cell.Peek() + 1)
			})
		}()
	}
	wg.Wait()

	if total != n {
		t.Errorf("total = %d, want %d (dispatches serialized)", total, n)
	}
}

// A dependency-free probe of the rerun discipline: an observer that
// counts its own runs via an isolated write, while reading one cell
// normally. Each write to the cell reruns it exactly once.
func TestGraphRerunCount(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	x := NewValue(g, 0)
	count := NewValue(g, 0)

	NewObserver(g, func() error {
		Isolate(func() {
			count.Set(count.Peek() + 1)
		})
		_ = x.Get()
		return nil
	})

	x.Set(1)
	x.Set(2)
	x.Set(3)

	if count.Peek() != 4 {
		t.Errorf("count = %d, want 4 (initial run + one per write)", count.Peek())
	}
}

package react

import (
	"errors"
	"testing"
)

func TestDerivedLazy(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	computes := 0
	d := NewDerived(g, func() (int, error) {
		computes++
		return 42, nil
	})

	if computes != 0 {
		t.Errorf("derived computed eagerly; computes = %d, want 0", computes)
	}

	v, err := d.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 42 {
		t.Errorf("value = %d, want 42", v)
	}
	if computes != 1 {
		t.Errorf("computes = %d, want 1", computes)
	}
}

func TestDerivedCaching(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	cell := NewValue(g, 10)

	computes := 0
	d := NewDerived(g, func() (int, error) {
		computes++
		return cell.Get() * 2, nil
	})

	for i := 0; i < 5; i++ {
		v, _ := d.Get()
		if v != 20 {
			t.Fatalf("value = %d, want 20", v)
		}
	}
	if computes != 1 {
		t.Errorf("computes after repeated reads = %d, want 1", computes)
	}

	cell.Set(11)
	// Invalidated but still lazy: no recompute until the next read.
	if computes != 1 {
		t.Errorf("computes after write = %d, want 1 (lazy)", computes)
	}

	v, _ := d.Get()
	if v != 22 {
		t.Errorf("value = %d, want 22", v)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
}

func TestDerivedErrorReplay(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	boom := errors.New("boom")
	computes := 0
	d := NewDerived(g, func() (int, error) {
		computes++
		return 0, boom
	})

	_, err1 := d.Get()
	_, err2 := d.Get()

	if !errors.Is(err1, boom) || !errors.Is(err2, boom) {
		t.Errorf("errors = %v, %v; want both %v", err1, err2, boom)
	}
	if computes != 1 {
		t.Errorf("computes = %d, want 1 (error cached like a value)", computes)
	}
}

func TestDerivedDynamicDependencies(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	useA := NewValue(g, true)
	a := NewValue(g, "a")
	b := NewValue(g, "b")

	computes := 0
	d := NewDerived(g, func() (string, error) {
		computes++
		if useA.Get() {
			return a.Get(), nil
		}
		return b.Get(), nil
	})

	if v, _ := d.Get(); v != "a" {
		t.Fatalf("value = %q, want %q", v, "a")
	}

	useA.Set(false)
	if v, _ := d.Get(); v != "b" {
		t.Fatalf("value = %q, want %q", v, "b")
	}
	if computes != 2 {
		t.Fatalf("computes = %d, want 2", computes)
	}

	// The edge to a was dropped on the last run: writing a must not
	// invalidate the cached result.
	a.Set("a2")
	if _, _ = d.Get(); computes != 2 {
		t.Errorf("computes after stale-source write = %d, want 2", computes)
	}

	b.Set("b2")
	if v, _ := d.Get(); v != "b2" {
		t.Errorf("value = %q, want %q", v, "b2")
	}
	if computes != 3 {
		t.Errorf("computes = %d, want 3", computes)
	}
}

func TestDerivedChainInvalidation(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	base := NewValue(g, 1)
	double := NewDerived(g, func() (int, error) {
		v := base.Get()
		return v * 2, nil
	})
	quad := NewDerived(g, func() (int, error) {
		v, err := double.Get()
		if err != nil {
			return 0, err
		}
		return v * 2, nil
	})

	runs := 0
	var last int
	NewObserver(g, func() error {
		v, err := quad.Get()
		if err != nil {
			return err
		}
		last = v
		runs++
		return nil
	})

	if last != 4 || runs != 1 {
		t.Fatalf("last = %d runs = %d, want 4 and 1", last, runs)
	}

	base.Set(3)
	if last != 12 {
		t.Errorf("last = %d, want 12", last)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestDerivedSelfReadPanics(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	var d *Derived[int]
	d = NewDerived(g, func() (int, error) {
		return d.Get()
	})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on self-read cycle")
		}
	}()
	_, _ = d.Get()
}

func TestDerivedSingleRecomputeAfterMultipleWrites(t *testing.T) {
	g, _ := newTestGraph()
	defer g.Close()

	cell := NewValue(g, 0)

	computes := 0
	d := NewDerived(g, func() (int, error) {
		computes++
		return cell.Get(), nil
	})

	if _, err := d.Get(); err != nil {
		t.Fatal(err)
	}

	cell.Set(1)
	cell.Set(2)
	cell.Set(3)

	v, _ := d.Get()
	if v != 3 {
		t.Errorf("value = %d, want 3", v)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2 (one per read, not per write)", computes)
	}
}

package react

import (
	"sync"
	"time"
)

// testStart is the fixed epoch every test clock starts at.
func testStart() time.Time {
	return time.Unix(1700000000, 0)
}

// newTestGraph returns a graph with a manual clock, plus the clock.
func newTestGraph(opts ...GraphOption) (*Graph, *ManualClock) {
	clock := NewManualClock(testStart())
	g := NewGraph(append([]GraphOption{WithClock(clock)}, opts...)...)
	return g, clock
}

// recordingSink captures everything an Output delivers.
type recordingSink struct {
	mu     sync.Mutex
	values []any
	errors []error
	clears int
}

func (s *recordingSink) RenderValue(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, value)
}

func (s *recordingSink) RenderError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *recordingSink) RenderClear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *recordingSink) valueCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *recordingSink) lastValue() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return nil
	}
	return s.values[len(s.values)-1]
}

func (s *recordingSink) errorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *recordingSink) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

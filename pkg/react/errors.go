package react

import (
	"errors"
	"fmt"
)

// ErrStop is the cancellation signal: a compute body that returns (or
// wraps) ErrStop asks for the current execution to stop without failing.
//
// Observers and Outputs catch ErrStop at their boundary and simply end
// the run. Derived nodes cache and replay it like any other error, so a
// reader of a stopped derived sees ErrStop until the node is
// invalidated and recomputes successfully.
var ErrStop = errors.New("react: stop")

// ErrGraphClosed is returned or reported when an operation reaches a
// graph whose session has already ended.
var ErrGraphClosed = errors.New("react: graph closed")

// ErrNotReactive is the panic value used when an API that needs an
// active reactive context (such as InvalidateLater) is called outside
// of one.
var ErrNotReactive = errors.New("react: no reactive context active")

// Stop returns ErrStop wrapped with a reason. The result still matches
// errors.Is(err, ErrStop), so the observer boundary treats it as a
// cancellation, not a failure.
//
//	if !ready {
//	    return react.Stop("input not ready")
//	}
func Stop(reason string) error {
	return fmt.Errorf("%w: %s", ErrStop, reason)
}

// FatalError wraps an error that terminated a graph session. The
// graph's error handler receives a *FatalError so callers can recover
// the node that failed.
type FatalError struct {
	// NodeID identifies the observer whose run raised the error.
	NodeID uint64

	// Label is the observer's label, when one was configured.
	Label string

	// Err is the underlying error. Nil after sanitization.
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	name := e.Label
	if name == "" {
		name = fmt.Sprintf("observer %d", e.NodeID)
	}
	if e.Err == nil {
		return fmt.Sprintf("react: session terminated by %s", name)
	}
	return fmt.Sprintf("react: session terminated by %s: %v", name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// sanitized returns a redacted copy that keeps the node identity but
// drops the failure detail.
func (e *FatalError) sanitized() *FatalError {
	return &FatalError{NodeID: e.NodeID, Label: e.Label}
}

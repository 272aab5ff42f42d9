package reactor

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrTimeoutExpired is returned by a bounded wait that reached its
	// deadline before the awaited event occurred.
	ErrTimeoutExpired = errors.New("reactor: timeout expired")

	// ErrFiberKilledWithNoResult names the case of a joined fiber that
	// terminated (normally or via cancellation) before it set a result that
	// the joiner was waiting on. No function in this package returns it;
	// JoinFiber reports termination with a nil error.
	ErrFiberKilledWithNoResult = errors.New("reactor: fiber killed with no result")

	// errReactorExit is the sentinel used to unwind fibers during shutdown.
	// Stop returns it to its caller, and a suspension point interrupted by
	// shutdown returns a *FiberInterruptError wrapping it. Start does not
	// return it; Start reports the stop code.
	errReactorExit = errors.New("reactor: exit")
)

// FiberInterruptError is returned from a suspension point when the
// suspended fiber was resumed because of cross-fiber cancellation
// (Reactor.ThrowInFiber) rather than the event it was waiting for.
type FiberInterruptError struct {
	// Cause is the error passed to ThrowInFiber, if any.
	Cause error
}

func (e *FiberInterruptError) Error() string {
	if e.Cause == nil {
		return "reactor: fiber interrupted"
	}
	return fmt.Sprintf("reactor: fiber interrupted: %s", e.Cause.Error())
}

func (e *FiberInterruptError) Unwrap() error { return e.Cause }

// FiberGroupExtinctionError is the FiberInterruptError cause injected into
// every member of a FiberGroup when the group is closed.
type FiberGroupExtinctionError struct {
	// Group names the group being closed, for diagnostics.
	Group string
}

func (e *FiberGroupExtinctionError) Error() string {
	if e.Group == "" {
		return "reactor: fiber group closed"
	}
	return fmt.Sprintf("reactor: fiber group %q closed", e.Group)
}

// AssertionError represents a programming-error invariant violation:
// invalid handle use, releasing an unacquired lock, the wrong fiber
// releasing a primitive it does not own, an exhausted fiber pool, or a
// nested critical-section violation. These are fatal: code that observes
// one should not attempt to continue the reactor.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return "reactor: assertion failed: " + e.Message }

// assertf panics with an *AssertionError if cond is false.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&AssertionError{Message: fmt.Sprintf(format, args...)})
	}
}

// WrapError wraps an error with a message, preserving the cause chain for
// errors.Is/errors.As. The blocking-call adapters do not use it; they return
// syscall errors unwrapped.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// asInterrupt reports whether err is (or wraps) a FiberInterruptError.
func asInterrupt(err error) (*FiberInterruptError, bool) {
	var fi *FiberInterruptError
	if errors.As(err, &fi) {
		return fi, true
	}
	return nil, false
}

package verbz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnimplemented is the sentinel wrapped by the conventional fallback
// implementation of a dispatch-backed verb. A verb applied to a subject
// whose type has no registered implementation surfaces an error satisfying
// errors.Is(err, ErrUnimplemented), whether the verb was applied through a
// chain or called directly.
var ErrUnimplemented = errors.New("verb not implemented for input type")

// Unimplemented returns a Func suitable as a dispatch fallback: it fails for
// every subject, reporting the verb name and the subject's runtime type.
// NewDispatcher and NewDispatchVerb install it automatically when given a
// nil fallback.
func Unimplemented(verb Name) Func {
	return func(_ context.Context, subject any, _ Args) (any, error) {
		return nil, fmt.Errorf("%s is not implemented for data of type %T: %w", verb, subject, ErrUnimplemented)
	}
}

// Error provides rich context about a failed verb application.
// It wraps the underlying error with information about which verbs were
// involved, what subject was being processed, and whether the failure was
// due to timeout or cancellation.
//
// The cause stays reachable through errors.Is/errors.As:
//
//	_, err := verbz.From(1).Then(appendVerb.Call()).Value()
//	if errors.Is(err, verbz.ErrUnimplemented) {
//	    // no implementation registered for int
//	}
type Error struct {
	Subject   any
	Err       error
	Path      []Name
	Timestamp time.Time
	Duration  time.Duration
	Timeout   bool
	Canceled  bool
}

// Error implements the error interface, providing a detailed error message.
func (e *Error) Error() string {
	location := "verb"
	if len(e.Path) > 0 {
		location = strings.Join(e.Path, " -> ")
	}

	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error was caused by a timeout.
func (e *Error) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled returns true if the error was caused by cancellation.
func (e *Error) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

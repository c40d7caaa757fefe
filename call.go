package verbz

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Call is a deferred operation: a target function plus the arguments
// captured when a verb factory was invoked. It is applied later to a
// subject, which becomes the target's first argument.
//
// A Call is an immutable value. It carries no state between applications,
// so the same Call may be applied to any number of subjects:
//
//	double := appendVerb.Call(2)
//	a, _ := verbz.Apply(ctx, []int{1}, double) // []int{1, 2}
//	b, _ := verbz.Apply(ctx, []int{9}, double) // []int{9, 2}
type Call struct {
	fn   Func
	verb Name
	args Args
}

// NewCall constructs a deferred operation targeting fn with the given
// arguments. Arguments are captured verbatim; Kwarg values are split into
// the keyword mapping. Most code obtains Calls from a Verb's Call method
// rather than constructing them directly.
func NewCall(verb Name, fn Func, args ...any) Call {
	return Call{
		verb: verb,
		fn:   fn,
		args: NewArgs(args...),
	}
}

// Verb returns the name of the verb this operation was minted from.
func (c Call) Verb() Name {
	return c.verb
}

// Args returns the captured arguments.
func (c Call) Args() Args {
	return c.args
}

// String returns a short description for debugging.
func (c Call) String() string {
	return fmt.Sprintf("%s(%d args)", c.verb, c.args.Len())
}

// ApplyTo invokes the target function with subject prepended ahead of the
// captured arguments and returns whatever the target returns. Failures
// propagate with their cause unchanged, wrapped in *Error when the target
// has not already done so.
func (c Call) ApplyTo(ctx context.Context, subject any) (any, error) {
	start := time.Now()
	result, err := c.fn(ctx, subject, c.args)
	if err != nil {
		var verbErr *Error
		if errors.As(err, &verbErr) {
			return nil, err
		}
		return nil, &Error{
			Path:      []Name{c.verb},
			Subject:   subject,
			Err:       err,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
			Timeout:   errors.Is(err, context.DeadlineExceeded),
			Canceled:  errors.Is(err, context.Canceled),
		}
	}
	return result, nil
}

// Apply is the free-function form of Call.ApplyTo, reading as
// "apply this operation to this subject".
func Apply(ctx context.Context, subject any, call Call) (any, error) {
	return call.ApplyTo(ctx, subject)
}

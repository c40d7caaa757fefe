package verbz

import (
	"context"
	"fmt"
)

// Source carries a value through a chain of verb applications. Any value is
// lifted into a *Source with From; Then applies a deferred operation to the
// running value, left to right, and Value reports the final result:
//
//	result, err := verbz.From([]int{1}).
//	    Then(appendVerb.Call(2)).
//	    Then(appendVerb.Call(3, 3)).
//	    Value()
//
// Application is immediate: each Then runs its operation before returning.
// Execution is fail-fast - once a step fails, later Then calls are skipped
// and Value returns the recorded error, whose Path names the failing verb.
//
// A Source is single-owner data, like any value mid-flight through a chain;
// it is not safe for concurrent use.
type Source struct {
	ctx   context.Context
	value any
	err   error
	trail []Name
}

// From lifts a value into a *Source so verbs can be chained onto it.
// Lifting is idempotent: if v is already a *Source, From returns it
// unchanged - no double wrapping, no loss of the originally wrapped value
// or its recorded error.
func From(v any) *Source {
	if s, ok := v.(*Source); ok {
		return s
	}
	return &Source{ctx: context.Background(), value: v}
}

// FromContext lifts a value into a *Source whose applications run under
// ctx. Like From, it leaves an existing *Source untouched, including its
// context.
func FromContext(ctx context.Context, v any) *Source {
	if s, ok := v.(*Source); ok {
		return s
	}
	return &Source{ctx: ctx, value: v}
}

// Then applies a deferred operation to the current value, replacing it with
// the operation's result. If a previous step already failed, the operation
// is skipped and the chain's error is kept.
func (s *Source) Then(call Call) *Source {
	if s.err != nil {
		return s
	}
	result, err := call.ApplyTo(s.ctx, s.value)
	s.trail = append(s.trail, call.Verb())
	if err != nil {
		s.err = err
		return s
	}
	s.value = result
	return s
}

// ThenFunc applies a one-off function as a chain step without defining a
// verb for it. Equivalent to Then(NewCall(name, fn, args...)).
func (s *Source) ThenFunc(name Name, fn Func, args ...any) *Source {
	return s.Then(NewCall(name, fn, args...))
}

// Value returns the chain's current value and its error, if any step
// failed.
func (s *Source) Value() (any, error) {
	return s.value, s.err
}

// MustValue returns the chain's current value, panicking if any step
// failed. Intended for tests and scripts where an error is a bug.
func (s *Source) MustValue() any {
	if s.err != nil {
		panic(fmt.Sprintf("verbz: %v", s.err))
	}
	return s.value
}

// Err returns the first error recorded by the chain, or nil.
func (s *Source) Err() error {
	return s.err
}

// Trail returns a copy of the names of the verbs applied so far, including
// the one that failed, in application order.
func (s *Source) Trail() []Name {
	if s.trail == nil {
		return nil
	}
	out := make([]Name, len(s.trail))
	copy(out, s.trail)
	return out
}

// Context returns the context chain steps run under.
func (s *Source) Context() context.Context {
	return s.ctx
}

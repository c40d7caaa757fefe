// Package verbz provides a lightweight library for threading a value through
// a chain of verb-like transformations, dispatching each verb's behavior by
// the runtime type of the value being piped.
//
// # Overview
//
// verbz lets you write readable left-to-right data flows:
//
//	result, err := verbz.From([]int{1}).
//	    Then(appendVerb.Call(2)).
//	    Then(appendVerb.Call(3, 3)).
//	    Value()
//
// where appendVerb carries one implementation per input type. A single verb
// name can append to a slice, concatenate to a string, or fail with a clear
// "not implemented" error for anything else - the implementation is selected
// at application time from the subject's runtime type.
//
// # Core Concepts
//
// The library is built from three cooperating pieces:
//
//   - Call: a deferred operation - a target function plus captured arguments,
//     applied later to a subject value.
//   - Dispatcher: runtime type-based dispatch - a registry mapping types to
//     implementations with a designated fallback, wrapped behind a single
//     uniform Func entry point.
//   - Source: the chaining wrapper - any value is lifted into a *Source with
//     From, and Then applies deferred operations left to right, fail-fast.
//
// A Verb ties the pieces together: it is a factory whose Call method mints
// deferred operations, optionally backed by a Dispatcher so one verb name
// serves many input types.
//
// # Quick Start
//
//	appendVerb := verbz.NewDispatchVerb("append", "append adds a value to the subject", nil)
//
//	verbz.Register(appendVerb, func(_ context.Context, subject []int, args verbz.Args) (any, error) {
//	    n, _ := args.AtOr(0, 1).(int)
//	    return append(append([]int(nil), subject...), n), nil
//	})
//	verbz.Register(appendVerb, func(_ context.Context, subject string, args verbz.Args) (any, error) {
//	    return subject + fmt.Sprint(args.AtOr(0, 1)), nil
//	})
//
//	out, err := verbz.From([]int{}).Then(appendVerb.Call()).Value()
//	// out: []int{1}, err: nil
//
//	out, err = verbz.From("").Then(appendVerb.Call()).Value()
//	// out: "1", err: nil
//
//	_, err = verbz.From(3.14).Then(appendVerb.Call()).Value()
//	// errors.Is(err, verbz.ErrUnimplemented): true
//
// # Observability
//
// Dispatcher instances expose metrics (via metricz), spans (via tracez), and
// typed async events (via hookz), and carry an injectable clock (via clockz)
// so tests can control every recorded timestamp and duration. Calls and
// Sources are ephemeral values and stay lean.
//
// # Error Handling
//
// The library raises no domain errors of its own. Implementation errors
// propagate to the caller wrapped in *Error, which records the verb path,
// the subject, the duration, and timeout/cancellation flags; the original
// cause stays reachable through errors.Is and errors.As. The one
// conventional sentinel is ErrUnimplemented, produced by the default
// dispatch fallback.
package verbz

import (
	"context"
	"reflect"
)

// Name is a type alias for verb and dispatcher names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
//
// Example:
//
//	const (
//	    AppendVerbName    Name = "append"
//	    SummarizeVerbName Name = "summarize"
//	)
type Name = string

// Func is the uniform implementation signature for verbs: subject-first,
// context-carrying, with the captured call arguments trailing. Everything a
// verb can target - a plain function, a dispatch fallback, a per-type
// implementation wrapped by Register - reduces to a Func.
//
// Implementations must not mutate the subject; return a modified copy
// instead. That contract belongs to the implementation author, the library
// does not enforce it.
type Func func(ctx context.Context, subject any, args Args) (any, error)

// Registry is the registration surface shared by Dispatcher and
// dispatch-backed Verb values. Registering through either refers to the same
// underlying table, so implementations can be added before or after a
// dispatcher is wrapped as a verb.
type Registry interface {
	RegisterType(t reflect.Type, fn Func)
}

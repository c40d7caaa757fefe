package verbz

import (
	"context"
	"fmt"
	"reflect"
)

// Verb is a factory for deferred operations. Calling a verb does not run
// anything: it captures the arguments into a Call, which a chain (or Apply)
// later invokes with the piped value as subject. This is what makes
//
//	From(data).Then(summarize.Call()).Then(export.Call("csv"))
//
// read left to right while each step stays an ordinary function underneath.
//
// A verb created with NewDispatchVerb (or VerbOf) is dispatch-backed: its
// target is a Dispatcher, and the verb re-exposes that dispatcher's
// registration surface, so implementations may be registered through either
// the verb or the dispatcher, before or after wrapping - all refer to the
// same registry.
//
// The verb preserves the wrapped function's name and documentation
// (Name, Doc), matching whatever a direct call to the function would report.
type Verb struct {
	name       Name
	doc        string
	fn         Func
	dispatcher *Dispatcher
}

// NewVerb wraps a plain function as a verb factory. The function is invoked
// subject-first with the arguments captured by Call, so
//
//	From(x).Then(v.Call(args...)).Value()
//
// equals fn(ctx, x, NewArgs(args...)) exactly.
//
// Use NewDispatchVerb when the verb should select its implementation by
// subject type.
func NewVerb(name Name, doc string, fn Func) *Verb {
	return &Verb{
		name: name,
		doc:  doc,
		fn:   fn,
	}
}

// VerbOf wraps an existing Dispatcher as a verb factory. The verb's name
// and documentation come from the dispatcher, and its registration surface
// is re-exposed on the verb: registrations made through either refer to the
// same registry, whether they happen before or after this wrapping.
func VerbOf(d *Dispatcher) *Verb {
	return &Verb{
		name:       d.Name(),
		doc:        d.Doc(),
		fn:         d.Dispatch,
		dispatcher: d,
	}
}

// NewDispatchVerb creates a dispatch-backed verb in one step, equivalent to
// VerbOf(NewDispatcher(name, doc, fallback)). A nil fallback installs the
// conventional Unimplemented(name) body, so the verb fails cleanly for any
// subject type without a registered implementation.
func NewDispatchVerb(name Name, doc string, fallback Func) *Verb {
	return VerbOf(NewDispatcher(name, doc, fallback))
}

// Call mints a deferred operation targeting this verb with the given
// arguments. Kwarg values in the argument list are captured into the
// keyword mapping; everything else is positional.
func (v *Verb) Call(args ...any) Call {
	return NewCall(v.name, v.fn, args...)
}

// Invoke applies the verb directly: subject-first, like calling the wrapped
// function. Invoke and Call produce identical behavior for the same subject
// and arguments - a verb is usable both as a pipeline step and as a normal
// function.
func (v *Verb) Invoke(ctx context.Context, subject any, args ...any) (any, error) {
	return v.Call(args...).ApplyTo(ctx, subject)
}

// Name returns the verb's name.
func (v *Verb) Name() Name {
	return v.name
}

// Doc returns the wrapped function's documentation string. For
// dispatch-backed verbs this is the fallback's documentation, unchanged by
// registrations.
func (v *Verb) Doc() string {
	if v.dispatcher != nil {
		return v.dispatcher.Doc()
	}
	return v.doc
}

// Dispatcher returns the backing dispatcher, or nil for a plain verb.
func (v *Verb) Dispatcher() *Dispatcher {
	return v.dispatcher
}

// RegisterType associates an implementation with a type on the backing
// dispatcher. It panics if the verb is not dispatch-backed - a plain verb
// has no registry to register into.
func (v *Verb) RegisterType(t reflect.Type, fn Func) {
	if v.dispatcher == nil {
		panic(fmt.Sprintf("verbz: verb %q is not dispatch-backed", v.name))
	}
	v.dispatcher.RegisterType(t, fn)
}

// String returns a short description for debugging.
func (v *Verb) String() string {
	if v.dispatcher != nil {
		return fmt.Sprintf("verb %s (dispatch)", v.name)
	}
	return fmt.Sprintf("verb %s", v.name)
}

// TypedFunc is a per-type implementation: it receives the subject already
// asserted to its registered type. The return type stays any because a verb
// may hand a differently typed value to the next step in a chain.
type TypedFunc[T any] func(ctx context.Context, subject T, args Args) (any, error)

// Register associates fn with type T in r's registry, wrapping it so the
// subject arrives already typed. T may be a concrete type (exact-match
// registration) or an interface type (matched after exact lookups, in
// registration order). Registering T twice replaces the earlier
// implementation.
//
// Register works on both Dispatcher and dispatch-backed Verb values, before
// or after the dispatcher is wrapped:
//
//	verbz.Register(appendVerb, func(_ context.Context, s []int, args verbz.Args) (any, error) {
//	    n, _ := args.AtOr(0, 1).(int)
//	    return append(append([]int(nil), s...), n), nil
//	})
//
// (Register is a free function because Go methods cannot carry type
// parameters.)
func Register[T any](r Registry, fn TypedFunc[T]) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.RegisterType(t, func(ctx context.Context, subject any, args Args) (any, error) {
		return fn(ctx, subject.(T), args)
	})
}

package verbz

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Dispatcher.
const (
	// Metrics.
	DispatchProcessedTotal  = metricz.Key("dispatch.processed.total")
	DispatchSuccessesTotal  = metricz.Key("dispatch.successes.total")
	DispatchMatchedTotal    = metricz.Key("dispatch.matched.total")
	DispatchFallbackTotal   = metricz.Key("dispatch.fallback.total")
	DispatchRegisteredTypes = metricz.Key("dispatch.registered.types")
	DispatchDurationMs      = metricz.Key("dispatch.duration.ms")

	// Spans.
	DispatchProcessSpan = tracez.Key("dispatch.process")

	// Tags.
	DispatchTagInputType = tracez.Tag("dispatch.input_type")
	DispatchTagMatched   = tracez.Tag("dispatch.matched")
	DispatchTagSuccess   = tracez.Tag("dispatch.success")
	DispatchTagError     = tracez.Tag("dispatch.error")

	// Hook event keys.
	DispatchEventMatched  = hookz.Key("dispatch.matched")
	DispatchEventFallback = hookz.Key("dispatch.fallback")
)

// DispatchEvent represents a dispatch resolution event.
// It is emitted via hookz whenever a subject is dispatched, providing
// visibility into which input types resolve to registered implementations
// and which fall through to the fallback.
type DispatchEvent struct {
	Name      Name          // Dispatcher name
	InputType string        // Runtime type of the subject ("<nil>" for nil)
	Matched   bool          // Whether a registered implementation was found
	Success   bool          // Whether the implementation succeeded
	Error     error         // Error from the implementation (if failed)
	Duration  time.Duration // How long the implementation took
	Timestamp time.Time     // When the event occurred
}

// ifaceImpl is an interface registration. Interface entries keep their
// registration order; resolution scans them in that order after the exact
// type lookup misses.
type ifaceImpl struct {
	typ reflect.Type
	fn  Func
}

// Dispatcher selects an implementation from the runtime type of the subject
// being processed. It wraps one fallback function and an incrementally
// populated registry of per-type implementations; invoking Dispatch looks up
// the subject's dynamic type and runs the matching implementation, or the
// fallback when none matches.
//
// Resolution order:
//  1. Exact dynamic type match.
//  2. Registered interface types, in registration order, first one the
//     subject's type implements.
//  3. The fallback.
//
// Re-registering a type replaces the earlier implementation - last
// registration wins. Registration and dispatch are safe to interleave from
// multiple goroutines.
//
// The fallback's documentation string is preserved as the dispatcher's own
// (Doc), no matter how many implementations are registered afterward.
//
// # Observability
//
// Dispatcher provides comprehensive observability through metrics, tracing,
// and events:
//
// Metrics:
//   - dispatch.processed.total: Counter of dispatch operations
//   - dispatch.successes.total: Counter of successful applications
//   - dispatch.matched.total: Counter of subjects that found an implementation
//   - dispatch.fallback.total: Counter of subjects handled by the fallback
//   - dispatch.registered.types: Gauge of currently registered types
//   - dispatch.duration.ms: Gauge of resolution and application duration
//
// Traces:
//   - dispatch.process: Span for the dispatch operation including resolution
//
// Events (via hooks):
//   - dispatch.matched: Fired when a registered implementation runs
//   - dispatch.fallback: Fired when the fallback runs
//
// Example with hooks:
//
//	d := verbz.NewDispatcher("append", "append adds a value", nil)
//
//	// Alert on unhandled input types
//	d.OnFallback(func(_ context.Context, event verbz.DispatchEvent) error {
//	    log.Printf("no %s implementation for %s", event.Name, event.InputType)
//	    return nil
//	})
type Dispatcher struct {
	name     Name
	doc      string
	fallback Func
	exact    map[reflect.Type]Func
	ifaces   []ifaceImpl
	mu       sync.RWMutex
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	hooks    *hookz.Hooks[DispatchEvent]
	clock    clockz.Clock
}

// NewDispatcher creates a Dispatcher wrapping the given fallback function.
// The doc string should describe the verb's contract; it is preserved as the
// dispatcher's documentation regardless of later registrations. A nil
// fallback installs Unimplemented(name), the conventional default body for
// a dispatch-backed verb.
func NewDispatcher(name Name, doc string, fallback Func) *Dispatcher {
	if fallback == nil {
		fallback = Unimplemented(name)
	}

	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(DispatchProcessedTotal)
	metrics.Counter(DispatchSuccessesTotal)
	metrics.Counter(DispatchMatchedTotal)
	metrics.Counter(DispatchFallbackTotal)
	metrics.Gauge(DispatchRegisteredTypes)
	metrics.Gauge(DispatchDurationMs)

	return &Dispatcher{
		name:     name,
		doc:      doc,
		fallback: fallback,
		exact:    make(map[reflect.Type]Func),
		metrics:  metrics,
		tracer:   tracez.New(),
		hooks:    hookz.New[DispatchEvent](),
	}
}

// Dispatch resolves and runs the implementation for the subject's runtime
// type. It implements Func, so a Dispatcher slots anywhere a plain
// implementation does - most commonly as the target of a Verb.
func (d *Dispatcher) Dispatch(ctx context.Context, subject any, args Args) (result any, err error) {
	clock := d.getClock()
	d.metrics.Counter(DispatchProcessedTotal).Inc()
	start := clock.Now()

	ctx, span := d.tracer.StartSpan(ctx, DispatchProcessSpan)
	defer func() {
		elapsed := clock.Since(start)
		d.metrics.Gauge(DispatchDurationMs).Set(float64(elapsed.Milliseconds()))

		if err == nil {
			span.SetTag(DispatchTagSuccess, "true")
			d.metrics.Counter(DispatchSuccessesTotal).Inc()
		} else {
			span.SetTag(DispatchTagSuccess, "false")
			span.SetTag(DispatchTagError, err.Error())
		}
		span.Finish()
	}()

	inputType := fmt.Sprintf("%T", subject)
	span.SetTag(DispatchTagInputType, inputType)

	fn, matched := d.resolve(subject)
	if matched {
		span.SetTag(DispatchTagMatched, "true")
		d.metrics.Counter(DispatchMatchedTotal).Inc()
	} else {
		span.SetTag(DispatchTagMatched, "false")
		d.metrics.Counter(DispatchFallbackTotal).Inc()
	}

	fnStart := clock.Now()
	result, err = fn(ctx, subject, args)
	fnDuration := clock.Since(fnStart)

	eventKey := DispatchEventMatched
	if !matched {
		eventKey = DispatchEventFallback
	}
	_ = d.hooks.Emit(ctx, eventKey, DispatchEvent{ //nolint:errcheck
		Name:      d.name,
		InputType: inputType,
		Matched:   matched,
		Success:   err == nil,
		Error:     err,
		Duration:  fnDuration,
		Timestamp: clock.Now(),
	})

	if err != nil {
		var verbErr *Error
		if errors.As(err, &verbErr) {
			// Prepend this dispatcher's name to the path
			verbErr.Path = append([]Name{d.name}, verbErr.Path...)
			return nil, verbErr
		}
		return nil, &Error{
			Path:      []Name{d.name},
			Subject:   subject,
			Err:       err,
			Timestamp: clock.Now(),
			Duration:  fnDuration,
			Timeout:   errors.Is(err, context.DeadlineExceeded),
			Canceled:  errors.Is(err, context.Canceled),
		}
	}
	return result, nil
}

// resolve finds the implementation for the subject's dynamic type.
// The second return reports whether a registered implementation matched;
// false means the fallback was selected.
func (d *Dispatcher) resolve(subject any) (Func, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t := reflect.TypeOf(subject)
	if t == nil {
		// Untyped nil subject has no dynamic type to match.
		return d.fallback, false
	}
	if fn, ok := d.exact[t]; ok {
		return fn, true
	}
	for _, entry := range d.ifaces {
		if t.Implements(entry.typ) {
			return entry.fn, true
		}
	}
	return d.fallback, false
}

// RegisterType associates an implementation with a type. Interface types go
// into the ordered interface table, everything else into the exact-match
// table. Registering a type twice replaces the earlier implementation.
//
// Most callers use the generic Register helper instead, which derives the
// type and handles the subject assertion.
func (d *Dispatcher) RegisterType(t reflect.Type, fn Func) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t.Kind() == reflect.Interface {
		for i, entry := range d.ifaces {
			if entry.typ == t {
				d.ifaces[i].fn = fn
				return
			}
		}
		d.ifaces = append(d.ifaces, ifaceImpl{typ: t, fn: fn})
	} else {
		d.exact[t] = fn
	}
	d.metrics.Gauge(DispatchRegisteredTypes).Set(float64(len(d.exact) + len(d.ifaces)))
}

// HasType checks if an implementation is registered for the given type.
func (d *Dispatcher) HasType(t reflect.Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.exact[t]; ok {
		return true
	}
	for _, entry := range d.ifaces {
		if entry.typ == t {
			return true
		}
	}
	return false
}

// Registered returns a snapshot of the registered types: exact types first,
// then interface types in registration order.
func (d *Dispatcher) Registered() []reflect.Type {
	d.mu.RLock()
	defer d.mu.RUnlock()

	types := make([]reflect.Type, 0, len(d.exact)+len(d.ifaces))
	for t := range d.exact {
		types = append(types, t)
	}
	for _, entry := range d.ifaces {
		types = append(types, entry.typ)
	}
	return types
}

// ClearTypes removes all registered implementations, leaving the fallback.
func (d *Dispatcher) ClearTypes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exact = make(map[reflect.Type]Func)
	d.ifaces = nil
	d.metrics.Gauge(DispatchRegisteredTypes).Set(0)
}

// Name returns the name of this dispatcher.
func (d *Dispatcher) Name() Name {
	return d.name
}

// Doc returns the fallback implementation's documentation string.
// Registrations never change it.
func (d *Dispatcher) Doc() string {
	return d.doc
}

// Metrics returns the metrics registry for this dispatcher.
func (d *Dispatcher) Metrics() *metricz.Registry {
	return d.metrics
}

// Tracer returns the tracer for this dispatcher.
func (d *Dispatcher) Tracer() *tracez.Tracer {
	return d.tracer
}

// WithClock sets a custom clock for deterministic timestamps and durations
// in tests. Returns the dispatcher for chaining.
func (d *Dispatcher) WithClock(clock clockz.Clock) *Dispatcher {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = clock
	return d
}

// getClock returns the clock to use for time operations.
func (d *Dispatcher) getClock() clockz.Clock {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.clock == nil {
		return clockz.RealClock
	}
	return d.clock
}

// OnMatched registers a handler fired after a registered implementation
// runs. The handler is called asynchronously.
func (d *Dispatcher) OnMatched(handler func(context.Context, DispatchEvent) error) error {
	_, err := d.hooks.Hook(DispatchEventMatched, handler)
	return err
}

// OnFallback registers a handler fired after the fallback runs, useful for
// monitoring unhandled input types.
func (d *Dispatcher) OnFallback(handler func(context.Context, DispatchEvent) error) error {
	_, err := d.hooks.Hook(DispatchEventFallback, handler)
	return err
}

// Close gracefully shuts down observability components.
func (d *Dispatcher) Close() error {
	if d.tracer != nil {
		d.tracer.Close()
	}
	d.hooks.Close()
	return nil
}

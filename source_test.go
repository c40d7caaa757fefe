package verbz

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// newAppendVerb builds the canonical dispatch verb used across chain tests:
// appends its argument (default 1) to an []int subject, concatenates the
// stringified argument to a string subject, and fails for everything else.
func newAppendVerb() *Verb {
	v := NewDispatchVerb("append", "append adds a value to the subject", nil)
	registerAppendInts(v)
	registerAppendString(v)
	return v
}

func TestSource(t *testing.T) {
	t.Run("Lift Is Idempotent", func(t *testing.T) {
		s := From([]int{1})
		again := From(s)

		if again != s {
			t.Error("expected From on a *Source to return it unchanged")
		}

		value, err := again.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(value, []int{1}) {
			t.Errorf("expected wrapped value to survive re-lifting, got %v", value)
		}
	})

	t.Run("FromContext Keeps Existing Source", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "original")
		s := FromContext(ctx, 1)

		other := FromContext(context.Background(), s)
		if other != s {
			t.Error("expected FromContext on a *Source to return it unchanged")
		}
		if other.Context() != ctx {
			t.Error("expected original context to be kept")
		}
	})

	t.Run("Chains Left To Right", func(t *testing.T) {
		appendVerb := newAppendVerb()
		defer appendVerb.Dispatcher().Close()

		result, err := From([]int{1}).
			Then(appendVerb.Call(2)).
			Then(appendVerb.Call(3)).
			Then(appendVerb.Call(3)).
			Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result, []int{1, 2, 3, 3}) {
			t.Errorf("expected [1 2 3 3], got %v", result)
		}
	})

	t.Run("Steps May Change Subject Type", func(t *testing.T) {
		join := NewVerb("join", "", func(_ context.Context, subject any, args Args) (any, error) {
			ints, _ := subject.([]int)
			sep, _ := args.KeywordOr("sep", "-").(string)
			parts := make([]string, len(ints))
			for i, n := range ints {
				parts[i] = fmt.Sprint(n)
			}
			return strings.Join(parts, sep), nil
		})
		appendVerb := newAppendVerb()
		defer appendVerb.Dispatcher().Close()

		result, err := From([]int{1, 2}).
			Then(join.Call(Kw("sep", ","))).
			Then(appendVerb.Call(3)).
			Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "1,23" {
			t.Errorf("expected '1,23', got %v", result)
		}
	})

	t.Run("Sticky Error Skips Later Steps", func(t *testing.T) {
		cause := errors.New("boom")
		failing := NewVerb("explode", "", func(_ context.Context, _ any, _ Args) (any, error) {
			return nil, cause
		})
		calls := 0
		counting := NewVerb("count", "", func(_ context.Context, subject any, _ Args) (any, error) {
			calls++
			return subject, nil
		})

		s := From(1).Then(failing.Call()).Then(counting.Call())

		if _, err := s.Value(); !errors.Is(err, cause) {
			t.Errorf("expected chain error to be the first failure, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected later step to be skipped, ran %d times", calls)
		}
		if s.Err() == nil {
			t.Error("expected Err to report the recorded failure")
		}
	})

	t.Run("Trail Records Applied Verbs", func(t *testing.T) {
		appendVerb := newAppendVerb()
		defer appendVerb.Dispatcher().Close()
		failing := NewVerb("explode", "", func(_ context.Context, _ any, _ Args) (any, error) {
			return nil, errors.New("boom")
		})

		s := From([]int{}).
			Then(appendVerb.Call()).
			Then(failing.Call()).
			Then(appendVerb.Call())

		want := []Name{"append", "explode"}
		if !reflect.DeepEqual(s.Trail(), want) {
			t.Errorf("expected trail %v, got %v", want, s.Trail())
		}

		trail := s.Trail()
		trail[0] = "changed"
		if s.Trail()[0] != "append" {
			t.Error("expected Trail to return a copy")
		}
	})

	t.Run("ThenFunc One-Off Step", func(t *testing.T) {
		result, err := From(2).
			ThenFunc("square", func(_ context.Context, subject any, _ Args) (any, error) {
				n, _ := subject.(int)
				return n * n, nil
			}).
			Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 4 {
			t.Errorf("expected 4, got %v", result)
		}
	})

	t.Run("Context Reaches Implementations", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "present")

		result, err := FromContext(ctx, 1).
			ThenFunc("read_ctx", func(ctx context.Context, _ any, _ Args) (any, error) {
				return ctx.Value(ctxKey{}), nil
			}).
			Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "present" {
			t.Errorf("expected context value to reach the step, got %v", result)
		}
	})

	t.Run("MustValue", func(t *testing.T) {
		if got := From(7).MustValue(); got != 7 {
			t.Errorf("expected 7, got %v", got)
		}

		defer func() {
			if recover() == nil {
				t.Error("expected MustValue to panic on a failed chain")
			}
		}()
		From(1).ThenFunc("explode", func(_ context.Context, _ any, _ Args) (any, error) {
			return nil, errors.New("boom")
		}).MustValue()
	})
}

func TestAppendScenario(t *testing.T) {
	appendVerb := newAppendVerb()
	defer appendVerb.Dispatcher().Close()

	t.Run("Empty Slice Gets Default", func(t *testing.T) {
		result, err := From([]int{}).Then(appendVerb.Call()).Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result, []int{1}) {
			t.Errorf("expected [1], got %v", result)
		}
	})

	t.Run("Empty String Gets Stringified Default", func(t *testing.T) {
		result, err := From("").Then(appendVerb.Call()).Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "1" {
			t.Errorf("expected \"1\", got %v", result)
		}
	})

	t.Run("Explicit Argument", func(t *testing.T) {
		result, err := From([]int{}).Then(appendVerb.Call(2)).Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result, []int{2}) {
			t.Errorf("expected [2], got %v", result)
		}
	})

	t.Run("Unregistered Type Fails From Chain", func(t *testing.T) {
		_, err := From(1.5).Then(appendVerb.Call()).Value()
		if !errors.Is(err, ErrUnimplemented) {
			t.Errorf("expected ErrUnimplemented, got %v", err)
		}
	})

	t.Run("Unregistered Type Fails From Direct Call", func(t *testing.T) {
		_, err := appendVerb.Invoke(context.Background(), 1.5)
		if !errors.Is(err, ErrUnimplemented) {
			t.Errorf("expected ErrUnimplemented, got %v", err)
		}
	})

	t.Run("Subject Not Mutated", func(t *testing.T) {
		original := []int{1, 2}

		result, err := From(original).Then(appendVerb.Call(3)).Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result, []int{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", result)
		}
		if !reflect.DeepEqual(original, []int{1, 2}) {
			t.Errorf("expected original subject untouched, got %v", original)
		}
	})
}

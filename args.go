package verbz

// Kwarg is a named argument. Passing a Kwarg in a verb call's argument list
// captures it into the keyword mapping instead of the positional sequence:
//
//	appendVerb.Call(2, verbz.Kw("sep", ", "))
//
// captures one positional argument (2) and one keyword argument (sep).
type Kwarg struct {
	Name  string
	Value any
}

// Kw constructs a Kwarg.
func Kw(name string, value any) Kwarg {
	return Kwarg{Name: name, Value: value}
}

// Args holds the arguments captured by a verb call: an ordered positional
// sequence and a keyword mapping. Both are fixed at capture time; accessors
// return copies so a Call can be applied any number of times without one
// application observing another's reads.
//
// Implementations read arguments through the accessor methods, using the
// *Or variants to mirror defaulted parameters:
//
//	func(_ context.Context, subject []int, args verbz.Args) (any, error) {
//	    x, _ := args.AtOr(0, 1).(int) // positional x, default 1
//	    return append(append([]int(nil), subject...), x), nil
//	}
type Args struct {
	positional []any
	keyword    map[string]any
}

// NewArgs captures an argument list, splitting Kwarg values out of the
// positional sequence into the keyword mapping. A later Kwarg with the same
// name overwrites an earlier one. Arguments are stored verbatim, without
// validation.
func NewArgs(args ...any) Args {
	captured := Args{}
	for _, arg := range args {
		if kw, ok := arg.(Kwarg); ok {
			if captured.keyword == nil {
				captured.keyword = make(map[string]any)
			}
			captured.keyword[kw.Name] = kw.Value
			continue
		}
		captured.positional = append(captured.positional, arg)
	}
	return captured
}

// Len returns the number of positional arguments.
func (a Args) Len() int {
	return len(a.positional)
}

// At returns the positional argument at index i and whether it exists.
func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a.positional) {
		return nil, false
	}
	return a.positional[i], true
}

// AtOr returns the positional argument at index i, or def if absent.
func (a Args) AtOr(i int, def any) any {
	if v, ok := a.At(i); ok {
		return v
	}
	return def
}

// Keyword returns the keyword argument with the given name and whether it
// was captured.
func (a Args) Keyword(name string) (any, bool) {
	v, ok := a.keyword[name]
	return v, ok
}

// KeywordOr returns the keyword argument with the given name, or def if
// absent.
func (a Args) KeywordOr(name string, def any) any {
	if v, ok := a.keyword[name]; ok {
		return v
	}
	return def
}

// Positional returns a copy of the positional argument sequence.
func (a Args) Positional() []any {
	if a.positional == nil {
		return nil
	}
	out := make([]any, len(a.positional))
	copy(out, a.positional)
	return out
}

// Keywords returns a copy of the keyword argument mapping.
func (a Args) Keywords() map[string]any {
	if a.keyword == nil {
		return nil
	}
	out := make(map[string]any, len(a.keyword))
	for k, v := range a.keyword {
		out[k] = v
	}
	return out
}

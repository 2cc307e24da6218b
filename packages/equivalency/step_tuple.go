package equivalency

import (
	"reflect"
	"strconv"
)

// Tuple is a fixed-size ordered group of values compared position by position.
type Tuple interface {
	Arity() int
	Item(i int) any
}

// Pair is a Tuple of two values.
type Pair[A, B any] struct {
	First  A
	Second B
}

func NewPair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

func (p Pair[A, B]) Arity() int { return 2 }

func (p Pair[A, B]) Item(i int) any {
	if i == 0 {
		return p.First
	}
	return p.Second
}

// Triple is a Tuple of three values.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func NewTriple[A, B, C any](first A, second B, third C) Triple[A, B, C] {
	return Triple[A, B, C]{First: first, Second: second, Third: third}
}

func (t Triple[A, B, C]) Arity() int { return 3 }

func (t Triple[A, B, C]) Item(i int) any {
	switch i {
	case 0:
		return t.First
	case 1:
		return t.Second
	}
	return t.Third
}

var tupleType = reflect.TypeFor[Tuple]()

type tupleStep struct{}

func (tupleStep) Name() string { return "tuple" }

func (tupleStep) CanHandle(ctx *Context, _ *Options) bool {
	return ctx.expectation.Type().Implements(tupleType)
}

func (tupleStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	expectation := ctx.expectation.Interface().(Tuple)
	subject, ok := interfaceOf(ctx.subject).(Tuple)
	if !ok {
		return handled(failuref(ctx, "Expected %s to be a tuple with %d item(s), but found %s.",
			ctx.Describe(), expectation.Arity(), describeValue(ctx.subject)))
	}
	if subject.Arity() != expectation.Arity() {
		return handled(failuref(ctx, "Expected %s to be a tuple with %d item(s), but found a tuple with %d item(s).",
			ctx.Describe(), expectation.Arity(), subject.Arity()))
	}

	var failures []Failure
	for i := range expectation.Arity() {
		e := reflect.ValueOf(expectation.Item(i))
		var declared reflect.Type
		if e.IsValid() {
			declared = e.Type()
		}
		child := ctx.member("Item"+strconv.Itoa(i+1), reflect.ValueOf(subject.Item(i)), e, declared)
		f, err := v.Recurse(child)
		if err != nil {
			return Outcome{}, err
		}
		failures = append(failures, f...)
	}
	return handled(failures...)
}

package equivalency

import (
	"errors"
	"math"
	"reflect"
)

// valueStep compares value objects as a whole: primitives, types with an
// Equal method, errors and types registered with ComparingByValue.
type valueStep struct{}

func (valueStep) Name() string { return "value" }

func (valueStep) CanHandle(ctx *Context, opts *Options) bool {
	return opts.IsValueType(ctx.expectation.Type())
}

func (valueStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	s, e := ctx.subject, ctx.expectation

	if equal, ok := callEqual(e, s); ok {
		if !equal {
			return handled(mismatch(ctx, ""))
		}
		return handled()
	}

	if e.Type().Implements(errorType) && s.Type().Implements(errorType) {
		se, ee := s.Interface().(error), e.Interface().(error)
		if errors.Is(se, ee) || se.Error() == ee.Error() {
			return handled()
		}
		return handled(mismatch(ctx, ""))
	}

	if s.Type() != e.Type() {
		return handled(mismatch(ctx, conversionHint(ctx, v.opts)))
	}

	if !valuesEqual(s, e) {
		return handled(mismatch(ctx, ""))
	}
	return handled()
}

func valuesEqual(s, e reflect.Value) bool {
	switch e.Kind() {
	case reflect.Float32, reflect.Float64:
		a, b := s.Float(), e.Float()
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case reflect.Complex64, reflect.Complex128:
		a, b := s.Complex(), e.Complex()
		return a == b || (isNaNComplex(a) && isNaNComplex(b))
	case reflect.Func:
		return s.Pointer() == e.Pointer()
	}
	if e.Type().Comparable() && s.CanInterface() && e.CanInterface() {
		if equal, ok := compareComparable(s, e); ok {
			return equal
		}
	}
	return reflect.DeepEqual(interfaceOf(s), interfaceOf(e))
}

// compareComparable compares with ==. A comparable type can still hold an
// uncomparable value in an interface field, which makes == panic; ok is
// false then.
func compareComparable(s, e reflect.Value) (equal, ok bool) {
	defer func() {
		if recover() != nil {
			equal, ok = false, false
		}
	}()
	return s.Interface() == e.Interface(), true
}

func isNaNComplex(c complex128) bool {
	return math.IsNaN(real(c)) || math.IsNaN(imag(c))
}

// hasEqualMethod reports whether t has a method Equal(T) bool or Equal(*T) bool.
func hasEqualMethod(t reflect.Type) bool {
	_, ok := equalMethod(t)
	return ok
}

func equalMethod(t reflect.Type) (reflect.Method, bool) {
	if t == nil || t.Kind() == reflect.Interface {
		return reflect.Method{}, false
	}
	m, ok := t.MethodByName("Equal")
	if !ok {
		return reflect.Method{}, false
	}
	ft := m.Type
	if ft.NumIn() != 2 || ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Bool {
		return reflect.Method{}, false
	}
	arg := ft.In(1)
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if arg != base && arg != reflect.PointerTo(base) {
		return reflect.Method{}, false
	}
	return m, true
}

// callEqual calls expectation.Equal(subject) when the expectation type has
// an Equal method the subject can be passed to.
func callEqual(expectation, subject reflect.Value) (equal bool, ok bool) {
	m, found := equalMethod(expectation.Type())
	if !found {
		return false, false
	}
	arg := m.Type.In(1)
	var in reflect.Value
	switch {
	case subject.Type().AssignableTo(arg):
		in = subject
	case subject.Kind() == reflect.Pointer && !subject.IsNil() && subject.Elem().Type().AssignableTo(arg):
		in = subject.Elem()
	case reflect.PointerTo(subject.Type()).AssignableTo(arg):
		in = reflect.New(subject.Type())
		in.Elem().Set(subject)
	default:
		return false, true
	}
	defer func() {
		if recover() != nil {
			equal, ok = false, true
		}
	}()
	return expectation.Method(m.Index).Call([]reflect.Value{in})[0].Bool(), true
}

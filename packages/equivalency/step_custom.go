package equivalency

import (
	"fmt"
	"reflect"
	"strings"
)

// Registration is a custom comparison for values of one type, created with
// Compare or EqualityComparer and registered with Configurator.Using.
type Registration struct {
	typ      reflect.Type
	equality bool
	when     func(*Context) bool
	compare  func(subject, expectation reflect.Value) (bool, error)
	err      error
}

// Compare registers fn for values of type T. The comparison fails with
// the error fn returns. By default it applies when the expectation is a T.
func Compare[T any](fn func(subject, expectation T) error) *Registration {
	r := &Registration{typ: reflect.TypeFor[T]()}
	if fn == nil {
		r.err = argumentNil("fn")
		return r
	}
	r.compare = func(subject, expectation reflect.Value) (bool, error) {
		return true, fn(valueAs[T](subject), valueAs[T](expectation))
	}
	return r
}

// EqualityComparer registers an equality function for T. Registrations
// made this way must be able to apply somewhere in the expectation graph,
// otherwise the comparison is rejected as misuse.
func EqualityComparer[T any](equal func(subject, expectation T) bool) *Registration {
	r := &Registration{typ: reflect.TypeFor[T](), equality: true}
	if equal == nil {
		r.err = argumentNil("equal")
		return r
	}
	r.compare = func(subject, expectation reflect.Value) (bool, error) {
		return equal(valueAs[T](subject), valueAs[T](expectation)), nil
	}
	return r
}

// When replaces the default type predicate.
func (r *Registration) When(pred func(*Context) bool) *Registration {
	if pred == nil {
		r.err = argumentNil("pred")
		return r
	}
	r.when = pred
	return r
}

// WhenTypeIs applies the registration when the expectation is assignable
// to the registered type. This is the default.
func (r *Registration) WhenTypeIs() *Registration {
	r.when = nil
	return r
}

func (r *Registration) String() string {
	if r.equality {
		return fmt.Sprintf("equality comparer for %s", r.typ)
	}
	return fmt.Sprintf("custom comparison for %s", r.typ)
}

func (r *Registration) Name() string {
	return r.String()
}

func (r *Registration) CanHandle(ctx *Context, _ *Options) bool {
	if r.when != nil {
		return r.when(ctx)
	}
	if t := ctx.ExpectationType(); t != nil {
		return t.AssignableTo(r.typ)
	}
	return ctx.CompileTimeType != nil && ctx.CompileTimeType.AssignableTo(r.typ)
}

func (r *Registration) Handle(ctx *Context, _ *Validator) (Outcome, error) {
	subjectNil, expectationNil := isNil(ctx.subject), isNil(ctx.expectation)
	if subjectNil && expectationNil {
		return handled()
	}
	if (subjectNil || expectationNil) && !nillable(r.typ) {
		// A nil cannot become a T; the nil step reports it.
		return declined()
	}

	var failures []Failure
	if !subjectNil && !ctx.subject.Type().AssignableTo(r.typ) {
		failures = append(failures, failuref(ctx, "Expected %s from subject to be a %s, but found a %s.",
			ctx.Describe(), r.typ, ctx.subject.Type()))
	}
	if !expectationNil && !ctx.expectation.Type().AssignableTo(r.typ) {
		failures = append(failures, failuref(ctx, "Expected %s from expectation to be a %s, but found a %s.",
			ctx.Describe(), r.typ, ctx.expectation.Type()))
	}
	if len(failures) > 0 {
		return handled(failures...)
	}

	equal, err := r.invoke(ctx.subject, ctx.expectation)
	switch {
	case err != nil:
		return handled(failuref(ctx, "Expected %s to be %s, but %s.",
			ctx.Describe(), describeValue(ctx.expectation), strings.TrimSuffix(err.Error(), ".")))
	case !equal:
		return handled(mismatch(ctx, ""))
	}
	return handled()
}

func (r *Registration) invoke(subject, expectation reflect.Value) (equal bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			equal, err = false, fmt.Errorf("the comparison panicked: %v", p)
		}
	}()
	return r.compare(subject, expectation)
}

func valueAs[T any](v reflect.Value) T {
	var zero T
	if !v.IsValid() || !v.CanInterface() {
		return zero
	}
	t, _ := v.Interface().(T)
	return t
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// reachable reports whether a value of type target can appear somewhere in
// a graph rooted at a value of type root.
func reachable(root, target reflect.Type, opts *Options) bool {
	seen := make(map[reflect.Type]bool)
	var walk func(t reflect.Type) bool
	walk = func(t reflect.Type) bool {
		if t == nil || seen[t] {
			return false
		}
		seen[t] = true
		if t.AssignableTo(target) || t.Kind() == reflect.Interface {
			return true
		}
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			return walk(t.Elem())
		case reflect.Map:
			return walk(t.Key()) || walk(t.Elem())
		case reflect.Struct:
			if opts.IsValueType(t) {
				return false
			}
			for _, f := range exportedFields(t) {
				if walk(f.Type) {
					return true
				}
			}
			for _, g := range typeGetters(t) {
				if walk(g.Type) {
					return true
				}
			}
		}
		return false
	}
	return walk(root)
}

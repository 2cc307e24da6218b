package equivalency

import (
	"reflect"
)

// nilStep handles nodes where either side is nil.
type nilStep struct{}

func (nilStep) Name() string { return "nil" }

func (nilStep) CanHandle(ctx *Context, _ *Options) bool {
	return isNil(ctx.subject) || isNil(ctx.expectation)
}

func (nilStep) Handle(ctx *Context, _ *Validator) (Outcome, error) {
	if isNil(ctx.subject) && isNil(ctx.expectation) {
		return handled()
	}
	return handled(mismatch(ctx, ""))
}

// referenceStep short-cuts nodes where both sides are the same reference.
type referenceStep struct{}

func (referenceStep) Name() string { return "reference equality" }

func (referenceStep) CanHandle(ctx *Context, _ *Options) bool {
	s, e := ctx.subject, ctx.expectation
	if s.Type() != e.Type() {
		return false
	}
	switch s.Kind() {
	case reflect.Pointer, reflect.Map:
		return s.Pointer() == e.Pointer()
	case reflect.Slice:
		return s.Pointer() == e.Pointer() && s.Len() == e.Len()
	}
	return false
}

func (referenceStep) Handle(*Context, *Validator) (Outcome, error) {
	return handled()
}

// pointerStep compares what pointers point to. A pointer on either side is
// dereferenced, so that *int(5) is equivalent to 5.
type pointerStep struct{}

func (pointerStep) Name() string { return "pointer" }

func (pointerStep) CanHandle(ctx *Context, opts *Options) bool {
	if ctx.expectation.Kind() == reflect.Pointer {
		return !opts.IsValueType(ctx.expectation.Type())
	}
	return ctx.subject.Kind() == reflect.Pointer && !opts.IsValueType(ctx.subject.Type())
}

func (pointerStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	subject := ctx.subject
	if subject.Kind() == reflect.Pointer && !v.opts.IsValueType(subject.Type()) {
		subject = subject.Elem()
	}
	expectation, declared := ctx.expectation, ctx.CompileTimeType
	if expectation.Kind() == reflect.Pointer {
		expectation = expectation.Elem()
		if declared != nil && declared.Kind() == reflect.Pointer {
			declared = declared.Elem()
		}
	}
	failures, err := v.Dispatch(ctx.with(subject, expectation, declared))
	return Outcome{Handled: true, Failures: failures}, err
}

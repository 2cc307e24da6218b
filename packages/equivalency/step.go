package equivalency

import (
	"fmt"
	"reflect"

	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// Outcome is the result of a step handling a node.
type Outcome struct {
	// Handled is false when the step declines and the next step should run.
	Handled  bool
	Failures []Failure
}

// Step is one link of the comparison chain.
type Step interface {
	// CanHandle reports whether the step applies to the node.
	CanHandle(ctx *Context, opts *Options) bool
	// Handle compares the node. Recursion into children goes through v.
	Handle(ctx *Context, v *Validator) (Outcome, error)
}

// Name of a step for tracing.
func stepName(s Step) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

func handled(failures ...Failure) (Outcome, error) {
	return Outcome{Handled: true, Failures: failures}, nil
}

func declined() (Outcome, error) {
	return Outcome{}, nil
}

func describeValue(v reflect.Value) string {
	return format.Reflect(v)
}

// mismatch is the standard failure for a node whose values differ.
func mismatch(ctx *Context, suffix string) Failure {
	return Failure{
		Path: ctx.Path,
		Message: fmt.Sprintf("Expected %s to be %s, but found %s%s.",
			ctx.Describe(), describeValue(ctx.expectation), describeValue(ctx.subject), suffix),
	}
}

func failuref(ctx *Context, format string, args ...any) Failure {
	return Failure{Path: ctx.Path, Message: fmt.Sprintf(format, args...)}
}

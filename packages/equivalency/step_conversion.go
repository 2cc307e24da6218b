package equivalency

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

// conversionStep converts the expectation to the subject type and restarts
// the chain with the converted value. Failed conversions fall through.
type conversionStep struct{}

func (conversionStep) Name() string { return "auto-conversion" }

func (conversionStep) CanHandle(ctx *Context, opts *Options) bool {
	return ctx.subject.Type() != ctx.expectation.Type() && opts.IsConversionEnabled(ctx.Path)
}

func (conversionStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	converted, ok := convertTo(ctx.expectation, ctx.subject.Type())
	if !ok {
		v.trace("Could not convert %s to %s at %s", ctx.expectation.Type(), ctx.subject.Type(), ctx.Describe())
		return declined()
	}
	v.trace("Converted %s to %s at %s", ctx.expectation.Type(), ctx.subject.Type(), ctx.Describe())
	failures, err := v.Dispatch(ctx.with(ctx.subject, converted, nil))
	return Outcome{Handled: true, Failures: failures}, err
}

// convertTo converts v to type t without losing information.
func convertTo(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.CanInterface() {
		return reflect.Value{}, false
	}
	in := v.Interface()
	if isFloat(v.Kind()) && isInteger(t.Kind()) && v.Float() != math.Trunc(v.Float()) {
		return reflect.Value{}, false
	}

	var (
		out any
		err error
	)
	switch {
	case t == timeType:
		out, err = cast.ToTimeE(in)
	case t == durationType:
		out, err = cast.ToDurationE(in)
	default:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			var n int64
			n, err = cast.ToInt64E(in)
			if err == nil && reflect.Zero(t).OverflowInt(n) {
				err = fmt.Errorf("%d overflows %s", n, t)
			}
			out = n
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			var n uint64
			if isInteger(v.Kind()) && v.Kind() <= reflect.Int64 && v.Int() < 0 {
				return reflect.Value{}, false
			}
			n, err = cast.ToUint64E(in)
			if err == nil && reflect.Zero(t).OverflowUint(n) {
				err = fmt.Errorf("%d overflows %s", n, t)
			}
			out = n
		case reflect.Float32, reflect.Float64:
			out, err = cast.ToFloat64E(in)
		case reflect.String:
			if !isScalar(v.Kind()) {
				return reflect.Value{}, false
			}
			out, err = cast.ToStringE(in)
		case reflect.Bool:
			out, err = cast.ToBoolE(in)
		default:
			return reflect.Value{}, false
		}
	}
	if err != nil {
		return reflect.Value{}, false
	}

	result := reflect.ValueOf(out)
	if !result.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	return result.Convert(t), true
}

// conversionHint names the option that changes how the node is converted.
func conversionHint(ctx *Context, opts *Options) string {
	s, e := ctx.subject, ctx.expectation
	if !s.IsValid() || !e.IsValid() || s.Type() == e.Type() {
		return ""
	}
	if opts.IsConversionEnabled(ctx.Path) {
		return fmt.Sprintf(" (%s could not be converted to %s)", e.Type(), s.Type())
	}
	if _, ok := convertTo(e, s.Type()); ok {
		return fmt.Sprintf(" (use WithAutoConversion to convert %s to %s)", e.Type(), s.Type())
	}
	return ""
}

func isInteger(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isScalar(k reflect.Kind) bool {
	return k == reflect.Bool || k == reflect.String || isInteger(k) || isFloat(k)
}

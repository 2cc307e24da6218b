package equivalency

import (
	"fmt"
	"reflect"

	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// enumStep compares defined integer types by value or by name.
type enumStep struct{}

func (enumStep) Name() string { return "enum" }

func (enumStep) CanHandle(ctx *Context, _ *Options) bool {
	return format.IsEnum(ctx.expectation.Type()) || format.IsEnum(ctx.subject.Type())
}

func (enumStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	s, e := ctx.subject, ctx.expectation
	if !isInteger(s.Kind()) || !isInteger(e.Kind()) {
		return handled(mismatch(ctx, conversionHint(ctx, v.opts)))
	}

	if v.opts.enums == EnumByName && format.IsEnum(s.Type()) && format.IsEnum(e.Type()) {
		subjectName, _ := format.StringerName(s)
		expectationName, hasName := format.StringerName(e)
		if !hasName {
			return Outcome{}, invalidOperationf("cannot compare %s by name: %s does not implement fmt.Stringer",
				ctx.Describe(), e.Type())
		}
		if subjectName != expectationName {
			return handled(failuref(ctx, "Expected %s to be %s by name, but found %s.",
				ctx.Describe(), enumRepr(e), enumRepr(s)))
		}
		return handled()
	}

	if integerValue(s) != integerValue(e) {
		return handled(failuref(ctx, "Expected %s to be %s by value, but found %s.",
			ctx.Describe(), enumRepr(e), enumRepr(s)))
	}
	return handled()
}

func enumRepr(v reflect.Value) string {
	if format.IsEnum(v.Type()) {
		return format.EnumName(v)
	}
	return fmt.Sprint(v.Interface())
}

// integerValue widens v for comparison across integer kinds. Values that
// do not fit an int64 compare by their decimal text.
func integerValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fmt.Sprint(v.Uint())
	}
	return fmt.Sprint(v.Int())
}

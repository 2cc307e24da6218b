package equivalency

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// nearLength is how many runes of the subject are quoted around a difference.
const nearLength = 3

type stringStep struct{}

func (stringStep) Name() string { return "string" }

func (stringStep) CanHandle(ctx *Context, _ *Options) bool {
	return ctx.expectation.Kind() == reflect.String
}

func (stringStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	if ctx.subject.Kind() != reflect.String {
		return handled(mismatch(ctx, conversionHint(ctx, v.opts)))
	}
	if ctx.subject.Type() != ctx.expectation.Type() && !ctx.subject.Type().ConvertibleTo(ctx.expectation.Type()) {
		return handled(mismatch(ctx, ""))
	}

	o := v.opts.strings
	subject := normalizeString(ctx.subject.String(), o)
	expectation := normalizeString(ctx.expectation.String(), o)
	if f, ok := compareStrings(ctx, subject, expectation, o.ignoreCase); !ok {
		return handled(f)
	}
	return handled()
}

func normalizeString(s string, o stringOptions) string {
	if o.newlineStyle {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	if o.leading {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
	}
	if o.trailing {
		s = strings.TrimRightFunc(s, unicode.IsSpace)
	}
	return s
}

func compareStrings(ctx *Context, subject, expectation string, ignoreCase bool) (Failure, bool) {
	s, e := []rune(subject), []rune(expectation)
	index := firstDifference(s, e, ignoreCase)
	if index < 0 {
		return Failure{}, true
	}

	quoted := func(r []rune) string { return strconv.Quote(string(r)) }
	near := func(from int) string {
		end := min(from+nearLength, len(s))
		return strconv.Quote(string(s[from:end]))
	}

	var message string
	switch {
	case index == len(e) && isBlank(s[index:]):
		message = fmt.Sprintf("Expected %s to be %s, but it has unexpected whitespace at the end.",
			ctx.Describe(), quoted(e))
	case index == len(s) && isBlank(e[index:]):
		message = fmt.Sprintf("Expected %s to be %s, but it misses some extra whitespace at the end.",
			ctx.Describe(), quoted(e))
	case len(s) != len(e) && (index == len(s) || index == len(e)):
		tooWhat := "too short"
		if len(s) > len(e) {
			tooWhat = "too long"
		}
		message = fmt.Sprintf("Expected %s to be %s with a length of %d, but %s is %s.",
			ctx.Describe(), quoted(e), len(e), quoted(s), tooWhat)
	case len(s) != len(e):
		message = fmt.Sprintf("Expected %s to be %s with a length of %d, but %s has a length of %d, differs near %s (index %d).",
			ctx.Describe(), quoted(e), len(e), quoted(s), len(s), near(index), index)
	default:
		message = fmt.Sprintf("Expected %s to be %s, but %s differs near %s (index %d).",
			ctx.Describe(), quoted(e), quoted(s), near(index), index)
	}

	if format.IsMultiline(subject) || format.IsMultiline(expectation) {
		if diff := format.DiffStrings(expectation, subject); diff != "" {
			message += "\n" + strings.TrimRight(diff, "\n")
		}
	}
	return Failure{Path: ctx.Path, Message: message}, false
}

// firstDifference returns the index of the first differing rune, or -1
// when both are equal.
func firstDifference(s, e []rune, ignoreCase bool) int {
	n := min(len(s), len(e))
	for i := 0; i < n; i++ {
		if s[i] == e[i] {
			continue
		}
		if ignoreCase && unicode.ToLower(s[i]) == unicode.ToLower(e[i]) {
			continue
		}
		return i
	}
	if len(s) == len(e) {
		return -1
	}
	return n
}

func isBlank(r []rune) bool {
	for _, c := range r {
		if !unicode.IsSpace(c) {
			return false
		}
	}
	return len(r) > 0
}

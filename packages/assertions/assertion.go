package assertions

import (
	"bytes"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// Assertion asserts on a single subject. Every assertion method returns
// whether it passed.
type Assertion struct {
	t           TestingT
	subject     any
	context     string
	because     string
	becauseArgs []any
}

// That starts an assertion on subject.
func That(t TestingT, subject any) *Assertion {
	return &Assertion{t: t, subject: subject}
}

// As names the subject in failure messages.
func (a *Assertion) As(name string) *Assertion {
	a.context = name
	return a
}

// Because sets the reason reported with failures. {n} placeholders in
// reason are replaced by args.
func (a *Assertion) Because(reason string, args ...any) *Assertion {
	a.because = reason
	a.becauseArgs = args
	return a
}

// Subject returns the value under test.
func (a *Assertion) Subject() any {
	return a.subject
}

func (a *Assertion) message(template string, args ...any) string {
	return render(template, a.context, args, reason(a.because, a.becauseArgs))
}

func (a *Assertion) fail(failed bool, template string, args ...any) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	if !failed {
		return true
	}
	a.t.Errorf("%s", a.message(template, args...))
	return false
}

// failWith reports a rendered header followed by details that are not
// templated, so text in them is never mistaken for a placeholder.
func (a *Assertion) failWith(details, template string, args ...any) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	a.t.Errorf("%s\n%s", a.message(template, args...), details)
	return false
}

// Equal asserts that the subject and expected are deeply equal, including
// their types.
func (a *Assertion) Equal(expected any) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	if objectsAreEqual(expected, a.subject) {
		return true
	}
	if diffable(expected) && diffable(a.subject) {
		if diff := format.Diff(expected, a.subject); diff != "" {
			return a.failWith(strings.TrimRight(diff, "\n"), "Expected {context:value} to be {0}{reason}, but found {1}.", expected, a.subject)
		}
	}
	return a.fail(true, "Expected {context:value} to be {0}{reason}, but found {1}.", expected, a.subject)
}

// NotEqual asserts that the subject and unexpected differ.
func (a *Assertion) NotEqual(unexpected any) bool {
	return a.fail(objectsAreEqual(unexpected, a.subject),
		"Did not expect {context:value} to be {0}{reason}.", unexpected)
}

// BeNil asserts that the subject is nil or a nil pointer, map, slice,
// channel, function or interface.
func (a *Assertion) BeNil() bool {
	return a.fail(!isNil(a.subject), "Expected {context:value} to be <nil>{reason}, but found {0}.", a.subject)
}

// NotBeNil asserts that the subject is not nil.
func (a *Assertion) NotBeNil() bool {
	return a.fail(isNil(a.subject), "Expected {context:value} not to be <nil>{reason}.")
}

// Contain asserts that a string contains a substring, a collection contains
// an item equivalent to item, or a map contains the key item.
func (a *Assertion) Contain(item any) bool {
	if s, ok := a.subject.(string); ok {
		return a.fail(!strings.Contains(s, fmt.Sprint(item)),
			"Expected {context:string} {0} to contain {1}{reason}.", s, fmt.Sprint(item))
	}

	v := reflect.ValueOf(a.subject)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if equivalent(v.Index(i).Interface(), item) {
				return true
			}
		}
		return a.fail(true, "Expected {context:collection} {0} to contain {1}{reason}.", a.subject, item)
	case reflect.Map:
		key := reflect.ValueOf(item)
		if key.IsValid() && key.Type().ConvertibleTo(v.Type().Key()) && v.MapIndex(key.Convert(v.Type().Key())).IsValid() {
			return true
		}
		return a.fail(true, "Expected {context:dictionary} {0} to contain key {1}{reason}.", a.subject, item)
	}
	return a.fail(true, "Expected {context:value} to contain {0}{reason}, but found {1}, which cannot contain anything.", item, a.subject)
}

// StartWith asserts that the subject is a string starting with prefix.
func (a *Assertion) StartWith(prefix string) bool {
	s, ok := a.subject.(string)
	if !ok {
		return a.fail(true, "Expected {context:value} to be a string starting with {0}{reason}, but found {1}.", prefix, a.subject)
	}
	return a.fail(!strings.HasPrefix(s, prefix), "Expected {context:string} {0} to start with {1}{reason}.", s, prefix)
}

// EndWith asserts that the subject is a string ending with suffix.
func (a *Assertion) EndWith(suffix string) bool {
	s, ok := a.subject.(string)
	if !ok {
		return a.fail(true, "Expected {context:value} to be a string ending with {0}{reason}, but found {1}.", suffix, a.subject)
	}
	return a.fail(!strings.HasSuffix(s, suffix), "Expected {context:string} {0} to end with {1}{reason}.", s, suffix)
}

// MatchRegexp asserts that the formatted subject matches pattern. Slashes
// around the pattern are optional.
func (a *Assertion) MatchRegexp(pattern string) bool {
	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return misuse(a.t, fmt.Errorf("invalid regex pattern: %w", err))
	}
	s := fmt.Sprint(a.subject)
	return a.fail(!re.MatchString(s), "Expected {context:value} {0} to match /{1}/{reason}.", s, rawString(pattern))
}

// HaveLength asserts the length of a string, collection or map.
func (a *Assertion) HaveLength(expected int) bool {
	actual := computeLength(a.subject)
	if actual == -1 {
		return a.fail(true, "Expected {context:value} to have a length of {0}{reason}, but found {1}, which has no length.", expected, a.subject)
	}
	return a.fail(actual != expected, "Expected {context:value} to have a length of {0}{reason}, but found a length of {1}.", expected, actual)
}

// BeOfType asserts the JSON type of the subject: null, boolean, number,
// string, array or object. Other values are named by their Go type.
func (a *Assertion) BeOfType(expected string) bool {
	actual := jsonType(a.subject)
	return a.fail(actual != expected, "Expected {context:value} to be of type {0}{reason}, but found {1}.", rawString(expected), rawString(actual))
}

// BeGreaterThan asserts that the subject is a number greater than bound.
func (a *Assertion) BeGreaterThan(bound any) bool {
	return a.compareNumeric(bound, ">")
}

// BeGreaterOrEqualTo asserts that the subject is a number of at least bound.
func (a *Assertion) BeGreaterOrEqualTo(bound any) bool {
	return a.compareNumeric(bound, ">=")
}

// BeLessThan asserts that the subject is a number less than bound.
func (a *Assertion) BeLessThan(bound any) bool {
	return a.compareNumeric(bound, "<")
}

// BeLessOrEqualTo asserts that the subject is a number of at most bound.
func (a *Assertion) BeLessOrEqualTo(bound any) bool {
	return a.compareNumeric(bound, "<=")
}

func (a *Assertion) compareNumeric(bound any, op string) bool {
	actual, aOk := toFloat64(a.subject)
	expected, eOk := toFloat64(bound)
	if !eOk {
		return misuse(a.t, fmt.Errorf("cannot compare against non-numeric bound %s", format.Value(bound)))
	}
	if !aOk {
		return a.fail(true, "Expected {context:value} to be a number {0} {1}{reason}, but found {2}.", rawString(op), bound, a.subject)
	}

	var passed bool
	switch op {
	case ">":
		passed = actual > expected
	case ">=":
		passed = actual >= expected
	case "<":
		passed = actual < expected
	case "<=":
		passed = actual <= expected
	}
	return a.fail(!passed, "Expected {context:value} to be {0} {1}{reason}, but found {2}.", rawString(op), bound, a.subject)
}

func objectsAreEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	exp, ok := expected.([]byte)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	act, ok := actual.([]byte)
	if !ok {
		return false
	}
	if exp == nil || act == nil {
		return exp == nil && act == nil
	}
	return bytes.Equal(exp, act)
}

func equivalent(subject, expectation any) bool {
	failures, err := equivalency.AreEquivalent(subject, expectation)
	return err == nil && len(failures) == 0
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// diffable reports whether v renders across several lines.
func diffable(v any) bool {
	if s, ok := v.(string); ok {
		return format.IsMultiline(s)
	}
	if v == nil {
		return false
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// computeLength returns the length of a value, or -1 if length cannot be computed
func computeLength(actual any) int {
	switch v := actual.(type) {
	case string:
		return len([]rune(v))
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	case nil:
		return -1
	default:
		rv := reflect.ValueOf(actual)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
			return rv.Len()
		default:
			return -1
		}
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return rv.Type().String()
}

func toFloat64(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

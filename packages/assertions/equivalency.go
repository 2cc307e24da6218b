package assertions

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

// BeEquivalentTo asserts that the subject is structurally equivalent to
// expectation. The failure lists every difference, followed by the options
// the comparison ran with and the trace when a StringTracer was configured.
func (a *Assertion) BeEquivalentTo(expectation any, configure ...equivalency.Configure) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.beEquivalentTo(expectation, nil, configure)
}

// EquivalentTo is BeEquivalentTo with the expectation known as T, so that
// members are discovered on T when declared types are respected.
func EquivalentTo[T any](a *Assertion, expectation T, configure ...equivalency.Configure) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	return a.beEquivalentTo(expectation, reflect.TypeFor[T](), configure)
}

func (a *Assertion) beEquivalentTo(expectation any, declared reflect.Type, configure []equivalency.Configure) bool {
	opts, err := equivalency.Configured(configure...)
	if err != nil {
		return misuse(a.t, err)
	}
	failures, err := equivalency.New(opts).Validate(a.subject, expectation, declared)
	if err != nil {
		return misuse(a.t, err)
	}
	if len(failures) == 0 {
		return true
	}
	return a.failWith(equivalencyReport(failures, opts),
		"Expected {context:subject} to be equivalent to the expectation{reason}, but found {0} difference(s):", len(failures))
}

// NotBeEquivalentTo asserts that the subject differs from expectation in at
// least one way.
func (a *Assertion) NotBeEquivalentTo(unexpected any, configure ...equivalency.Configure) bool {
	failures, err := equivalency.AreEquivalent(a.subject, unexpected, configure...)
	if err != nil {
		return misuse(a.t, err)
	}
	return a.fail(len(failures) == 0, "Did not expect {context:subject} to be equivalent to {0}{reason}, but they are.", unexpected)
}

// AllSatisfy asserts that every item of a collection subject is equivalent
// to expectation. An empty collection passes.
func (a *Assertion) AllSatisfy(expectation any) bool {
	v := reflect.ValueOf(a.subject)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return a.fail(true, "Expected {context:collection} to be a collection{reason}, but found {0}.", a.subject)
	}

	var lines []string
	failed := 0
	for i := 0; i < v.Len(); i++ {
		failures, err := equivalency.AreEquivalent(v.Index(i).Interface(), expectation)
		if err != nil {
			return misuse(a.t, err)
		}
		if len(failures) == 0 {
			continue
		}
		failed++
		for _, f := range failures {
			lines = append(lines, fmt.Sprintf("- [%d]: %s", i, f.Message))
		}
	}
	if failed == 0 {
		return true
	}
	return a.failWith(strings.Join(lines, "\n"),
		"Expected all items of {context:collection} to be equivalent to {0}{reason}, but {1} item(s) differ:", expectation, failed)
}

func equivalencyReport(failures []equivalency.Failure, opts *equivalency.Options) string {
	var b strings.Builder
	b.WriteString(equivalency.Join(failures))
	b.WriteString("\n\nWith configuration:\n")
	b.WriteString(opts.String())
	if tracer, ok := opts.Tracer().(*equivalency.StringTracer); ok {
		if trace := tracer.String(); trace != "" {
			b.WriteString("\n\nWith trace:\n")
			b.WriteString(trace)
		}
	}
	return b.String()
}

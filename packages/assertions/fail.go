package assertions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// TestingT is the part of *testing.T assertions report through.
type TestingT interface {
	Errorf(format string, args ...any)
}

type tHelper interface {
	Helper()
}

type failNower interface {
	FailNow()
}

// defaultContext names the value under test when no name was given.
const defaultContext = "value"

var placeholderPattern = regexp.MustCompile(`\{(\d+|reason|context(?::([^{}]*))?)\}`)

var indexPattern = regexp.MustCompile(`\{(\d+)\}`)

// Fail reports a failure to t when failed is true and returns whether the
// assertion passed. template may use {0}..{n} for args, {reason} for the
// reason built from because and becauseArgs, and {context} for the value
// under test.
func Fail(t TestingT, failed bool, template string, args []any, because string, becauseArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !failed {
		return true
	}
	t.Errorf("%s", render(template, "", args, reason(because, becauseArgs)))
	return false
}

// reason formats a reason with its arguments and makes sure it starts with
// "because". The result is empty or starts with a space so it can be placed
// directly after a sentence fragment.
func reason(because string, args []any) string {
	because = strings.TrimSpace(substitute(because, args))
	if because == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(because), "because") {
		because = "because " + because
	}
	return " " + because
}

// substitute replaces {n} placeholders with plain arguments. Placeholders
// without a matching argument are kept.
func substitute(s string, args []any) string {
	if len(args) == 0 {
		return s
	}
	return indexPattern.ReplaceAllStringFunc(s, func(match string) string {
		i, err := strconv.Atoi(match[1 : len(match)-1])
		if err != nil || i >= len(args) {
			return match
		}
		return fmt.Sprint(args[i])
	})
}

// render fills the placeholders of a failure template. Arguments are
// formatted with format.Value so strings come out quoted.
func render(template, context string, args []any, reason string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name := groups[1]
		switch {
		case name == "reason":
			return reason
		case strings.HasPrefix(name, "context"):
			if context != "" {
				return context
			}
			if strings.Contains(name, ":") && groups[2] != "" {
				return groups[2]
			}
			return defaultContext
		}
		i, err := strconv.Atoi(name)
		if err != nil || i >= len(args) {
			return match
		}
		if raw, ok := args[i].(rawString); ok {
			return string(raw)
		}
		return format.Value(args[i])
	})
}

// rawString is an argument rendered without quotes.
type rawString string

// misuse reports a programming error. Unlike failures it stops the test
// when t supports it.
func misuse(t TestingT, err error) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	t.Errorf("%v", err)
	if f, ok := t.(failNower); ok {
		f.FailNow()
	}
	return false
}

package format

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Dump renders v across multiple lines with sorted map keys.
func Dump(v any) string {
	return spewConfig.Sdump(v)
}

// Diff returns a unified diff between the multi-line renderings of
// expected and actual, or an empty string when they render identically.
func Diff(expected, actual any) string {
	e, ok := expected.(string)
	if !ok {
		e = Dump(expected)
	}
	a, ok := actual.(string)
	if !ok {
		a = Dump(actual)
	}
	return DiffStrings(e, a)
}

// DiffStrings returns a unified diff between two multi-line strings.
func DiffStrings(expected, actual string) string {
	if expected == actual {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(expected)),
		B:        difflib.SplitLines(ensureNewline(actual)),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// IsMultiline reports whether s spans more than one line.
func IsMultiline(s string) bool {
	return strings.ContainsAny(strings.TrimRight(s, "\r\n"), "\r\n")
}

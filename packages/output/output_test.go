package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/equivspec/packages/core/runner"
	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		Results: []*runner.PairResult{
			{Name: "users.json vs users.json", Expectation: "want/users.json", Subject: "got/users.json", Passed: true, Duration: 3 * time.Millisecond},
			{
				Name:        "orders.json vs orders.json",
				Expectation: "want/orders.json",
				Subject:     "got/orders.json",
				Failures: []equivalency.Failure{
					{Path: "total", Message: "Expected member total to be 10.0, but found 12.0."},
					{Path: "note", Message: "Expected member note to be \"a\nb\", but found \"a\"."},
				},
				Configuration: "- Use declared types and members\n- Compare enums by value",
				Trace:         "subject: dictionary",
			},
			{Name: "broken.yaml vs broken.yaml", Error: errors.New("cannot load got/broken.yaml")},
			{Name: "later.json vs later.json", Skipped: true, SkipReason: "bail after first mismatch"},
		},
		Duration: 20 * time.Millisecond,
		Passed:   1,
		Failed:   2,
		Skipped:  1,
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "console", "JSON", "junit", "tap"} {
		f, err := New(name, Options{Writer: &bytes.Buffer{}, NoColor: true})
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := New("html", Options{})
	assert.ErrorContains(t, err, `unknown output format "html"`)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatHeader("1.0.0")
	f.FormatResult(sampleResult())
	out := buf.String()

	assert.Contains(t, out, "equivspec 1.0.0")
	assert.Contains(t, out, "✓ users.json vs users.json (3ms)")
	assert.Contains(t, out, "✗ orders.json vs orders.json")
	assert.Contains(t, out, "→ Expected member total to be 10.0, but found 12.0.")
	assert.Contains(t, out, "→ Expected member note to be \"a\n      b\", but found \"a\".")
	assert.Contains(t, out, "With configuration:\n      - Use declared types and members")
	assert.Contains(t, out, "With trace:\n      subject: dictionary")
	assert.Contains(t, out, "x broken.yaml vs broken.yaml (cannot load got/broken.yaml)")
	assert.Contains(t, out, "- later.json vs later.json (bail after first mismatch)")
	assert.Contains(t, out, "Pairs: 1 equivalent, 2 different, 1 skipped, 4 total")
}

func TestConsoleFormatter_QuietWithoutVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(sampleResult())

	assert.NotContains(t, buf.String(), "With configuration:")
	assert.NotContains(t, buf.String(), "With trace:")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf), JSONWithRunID("run-1"))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(20*time.Millisecond))

	var got JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, got.Summary)
	require.Len(t, got.Pairs, 4)
	assert.Equal(t, "got/orders.json", got.Pairs[1].Subject)
	assert.Equal(t, "total", got.Pairs[1].Failures[0].Path)
	assert.NotEmpty(t, got.Pairs[1].Configuration)
	assert.Equal(t, "cannot load got/broken.yaml", got.Pairs[2].Error)
	assert.Equal(t, "bail after first mismatch", got.Pairs[3].SkipReason)
}

func TestJSONFormatter_GeneratesRunID(t *testing.T) {
	a := NewJSONFormatter()
	b := NewJSONFormatter()

	assert.Len(t, a.runID, 36)
	assert.NotEqual(t, a.runID, b.runID)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(20*time.Millisecond))

	out := buf.String()
	require.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes()[len(`<?xml version="1.0" encoding="UTF-8"?>`):], &suites))
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 2, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "2 difference(s)", cases[1].Failure.Message)
	assert.Contains(t, cases[1].Failure.Content, "Expected member total to be 10.0")
	require.NotNil(t, cases[2].Error)
	require.NotNil(t, cases[3].Skipped)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(0))

	out := buf.String()
	assert.Contains(t, out, "TAP version 13\n1..4\n")
	assert.Contains(t, out, "ok 1 - users.json vs users.json\n")
	assert.Contains(t, out, "not ok 2 - orders.json vs orders.json\n")
	assert.Contains(t, out, `    - "Expected member note to be \"a\nb\", but found \"a\"."`)
	assert.Contains(t, out, "not ok 3 - broken.yaml vs broken.yaml\n  ---\n  message: cannot load got/broken.yaml")
	assert.Contains(t, out, "ok 4 - later.json vs later.json # SKIP bail after first mismatch")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"say \"hi\""`, escapeYAML(`say "hi"`))
	assert.Equal(t, `"one\ntwo"`, escapeYAML("one\ntwo"))
}

func TestContinuation(t *testing.T) {
	assert.Equal(t, "one", continuation("one", "  "))
	assert.Equal(t, "one\n  two\n\n  three", continuation("one\ntwo\n\nthree", "  "))
}

package runner

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r)
		assert.NotNil(t, r.config)
		assert.NotNil(t, r.log)
	})

	t.Run("with custom config", func(t *testing.T) {
		cfg := &Config{
			Verbose:     true,
			Parallel:    true,
			Concurrency: 10,
		}
		r := NewRunner(cfg)
		assert.NotNil(t, r)
		assert.True(t, r.config.Verbose)
		assert.Equal(t, 10, r.config.Concurrency)
	})
}

func TestPairsFromArgs(t *testing.T) {
	pairs, err := PairsFromArgs([]string{"want/a.json", "got/a.json", "want/b.yaml", "got/b.yaml"})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Name: "a.json vs a.json", Expectation: "want/a.json", Subject: "got/a.json"}, pairs[0])
	assert.Equal(t, "want/b.yaml", pairs[1].Expectation)

	_, err = PairsFromArgs([]string{"only-one.json"})
	assert.ErrorIs(t, err, ErrOddArguments)
	_, err = PairsFromArgs(nil)
	assert.ErrorIs(t, err, ErrOddArguments)
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"id": 1, "tags": ["a", "b"]}`)
	same := writeFile(t, dir, "same.yaml", "id: 1\ntags: [b, a]\n")
	different := writeFile(t, dir, "different.json", `{"id": 2, "tags": ["a", "b"]}`)

	r := NewRunner(&Config{})
	result := r.Run([]Pair{
		{Name: "same", Expectation: want, Subject: same},
		{Name: "different", Expectation: want, Subject: different},
	})

	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Passed)
	assert.Empty(t, result.Results[0].Failures)

	failed := result.Results[1]
	assert.False(t, failed.Passed)
	assert.Equal(t, []string{"Expected member id to be 1, but found 2."}, equivalency.Messages(failed.Failures))
	assert.Contains(t, failed.Configuration, "- Ignore the order of collections")
	assert.False(t, result.HasErrors())
}

func TestRunner_Configure(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"tags": ["a", "b"]}`)
	got := writeFile(t, dir, "got.json", `{"tags": ["b", "a"]}`)

	r := NewRunner(&Config{Configure: []equivalency.Configure{
		func(c *equivalency.Configurator) *equivalency.Configurator { return c.WithStrictOrdering() },
	}})
	result := r.Run([]Pair{{Name: "strict", Expectation: want, Subject: got}})

	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Results[0].Failures, 2)
}

func TestRunner_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{}`)
	broken := writeFile(t, dir, "broken.json", `{"id": `)

	r := NewRunner(&Config{})
	result := r.Run([]Pair{
		{Name: "missing", Expectation: filepath.Join(dir, "nope.json"), Subject: want},
		{Name: "broken", Expectation: want, Subject: broken},
	})

	assert.Equal(t, 2, result.Failed)
	assert.True(t, result.HasErrors())
	assert.ErrorContains(t, result.Results[0].Error, "loading expectation")
	assert.ErrorContains(t, result.Results[1].Error, "loading subject")
}

func TestRunner_Select(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"meta": {"at": 1}, "data": {"id": 7}}`)
	got := writeFile(t, dir, "got.json", `{"meta": {"at": 2}, "data": {"id": 7}}`)
	empty := writeFile(t, dir, "empty.json", `{"meta": {}}`)

	r := NewRunner(&Config{Select: "data"})
	result := r.Run([]Pair{
		{Name: "selected", Expectation: want, Subject: got},
		{Name: "missing in subject", Expectation: want, Subject: empty},
		{Name: "missing in expectation", Expectation: empty, Subject: want},
	})

	assert.True(t, result.Results[0].Passed)
	assert.False(t, result.Results[1].Passed)
	assert.NoError(t, result.Results[1].Error)
	assert.NotEmpty(t, result.Results[1].Failures)
	assert.ErrorContains(t, result.Results[2].Error, `has no value at "data"`)
}

func TestRunner_Schema(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{"type": "object", "required": ["id"]}`)
	want := writeFile(t, dir, "want.json", `{"name": "x"}`)

	r := NewRunner(&Config{Schema: schema})
	result := r.Run([]Pair{{Name: "schema", Expectation: want, Subject: want}})

	require.Len(t, result.Results[0].Failures, 1)
	assert.Contains(t, result.Results[0].Failures[0].Message, "to match schema")

	r = NewRunner(&Config{Schema: filepath.Join(dir, "missing.json")})
	result = r.Run([]Pair{{Name: "schema", Expectation: want, Subject: want}})
	assert.ErrorContains(t, result.Results[0].Error, "failed to read schema file")
}

func TestRunner_Bail(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `1`)
	two := writeFile(t, dir, "two.json", `2`)

	r := NewRunner(&Config{Bail: true})
	result := r.Run([]Pair{
		{Name: "first", Expectation: one, Subject: one},
		{Name: "second", Expectation: one, Subject: two},
		{Name: "third", Expectation: one, Subject: one},
	})

	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "bail after first mismatch", result.Results[2].SkipReason)
}

func TestRunner_Parallel(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `{"n": 1}`)
	two := writeFile(t, dir, "two.json", `{"n": 2}`)

	var pairs []Pair
	for i := 0; i < 20; i++ {
		subject := one
		if i%2 == 1 {
			subject = two
		}
		pairs = append(pairs, Pair{Name: filepath.Base(subject), Expectation: one, Subject: subject})
	}

	r := NewRunner(&Config{Parallel: true, Concurrency: 3, Trace: true})
	result := r.Run(pairs)

	assert.Equal(t, 10, result.Passed)
	assert.Equal(t, 10, result.Failed)
	for i, p := range result.Results {
		assert.Equal(t, i%2 == 0, p.Passed, "results keep the order of the pairs")
		assert.Contains(t, p.Trace, "subject: dictionary")
	}
}

func TestRunner_NameFilter(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `1`)

	r := NewRunner(&Config{NameFilter: "users*"})
	result := r.Run([]Pair{
		{Name: "users-list", Expectation: one, Subject: one},
		{Name: "orders", Expectation: one, Subject: one},
	})

	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "filtered out", result.Results[0].SkipReason)
}

func TestRunner_NameFilterGlob(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `1`)

	r := NewRunner(&Config{NameFilter: "{users,orders}-?.json vs *"})
	result := r.Run([]Pair{
		{Name: "users-1.json vs want.json", Expectation: one, Subject: one},
		{Name: "orders-2.json vs want.json", Expectation: one, Subject: one},
		{Name: "users-10.json vs want.json", Expectation: one, Subject: one},
	})

	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "users-10.json vs want.json", result.Results[0].Name)
}

func TestRunner_VerboseLogsTrace(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `{"n": 1}`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := NewRunner(&Config{Verbose: true, Logger: logger})
	result := r.Run([]Pair{{Name: "logged", Expectation: one, Subject: one}})

	assert.Equal(t, 1, result.Passed)
	assert.Contains(t, buf.String(), "trace_id=")
	assert.Contains(t, buf.String(), "pair=logged")
	assert.Contains(t, buf.String(), `msg="compared pair"`)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"users-list", "", true},
		{"users-list", "users-list", true},
		{"users-list", "users*", true},
		{"users-list", "*list", true},
		{"users-list", "*ers-l*", true},
		{"users-list", "orders*", false},
		{"users-list", "*", true},
		{"users-list", "users-????", true},
		{"users-list", "users-[lm]ist", true},
		{"users-list", "{orders,users}-*", true},
		{"users-list", "users-[", false},
		{"orders-list", "users-?ist", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern))
		})
	}
}

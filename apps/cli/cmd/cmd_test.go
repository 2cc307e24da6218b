package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/equivspec/packages/core/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompare_Equivalent(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"name": "ann", "tags": ["a", "b"]}`)
	got := writeFile(t, dir, "got.yaml", "name: ann\ntags: [b, a]\n")

	out, _, err := execute(t, "compare", want, got, "--no-color")

	require.NoError(t, err)
	assert.Contains(t, out, "✓ got.yaml vs want.json")
	assert.Contains(t, out, "1 equivalent")
}

func TestCompare_Mismatch(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"name": "ann", "meta": {"at": 1}}`)
	got := writeFile(t, dir, "got.json", `{"name": "bob", "meta": {"at": 2}}`)

	out, _, err := execute(t, "compare", want, got, "--no-color")

	require.Error(t, err)
	assert.Equal(t, ExitMismatch, exitCode(err))
	assert.Contains(t, out, "Expected member name")
	assert.Contains(t, out, "Expected member meta.at")
}

func TestCompare_Exclude(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"name": "ann", "meta": {"at": 1}}`)
	got := writeFile(t, dir, "got.json", `{"name": "ann", "meta": {"at": 2}}`)

	_, _, err := execute(t, "compare", want, got, "--no-color", "--exclude", "meta.*")

	assert.NoError(t, err)
}

func TestCompare_StrictOrderingFromConfig(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"tags": ["a", "b"]}`)
	got := writeFile(t, dir, "got.json", `{"tags": ["b", "a"]}`)
	cfg := writeFile(t, dir, "strict.equivspec.yaml", "policy:\n  strictOrdering: true\n")

	_, _, err := execute(t, "compare", want, got, "--no-color")
	assert.NoError(t, err)

	_, _, err = execute(t, "compare", want, got, "--no-color", "--config", cfg)
	assert.Equal(t, ExitMismatch, exitCode(err))

	_, _, err = execute(t, "compare", want, got, "--no-color", "--config", cfg, "--strict-ordering=false")
	assert.NoError(t, err, "an explicit flag overrides the config file")
}

func TestCompare_InputError(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"name": "ann"}`)

	out, _, err := execute(t, "compare", want, filepath.Join(dir, "missing.json"), "--no-color")

	assert.Equal(t, ExitInputError, exitCode(err))
	assert.Contains(t, out, "missing.json")
}

func TestCompare_UsageErrors(t *testing.T) {
	_, _, err := execute(t, "compare", "only-one.json")
	assert.Equal(t, ExitUsageError, exitCode(err))
	assert.ErrorContains(t, err, "pairs")
}

func TestCompare_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{}`)
	got := writeFile(t, dir, "got.json", `{}`)

	_, _, err := execute(t, "compare", want, got, "-o", "html")
	assert.Equal(t, ExitConfigError, exitCode(err))
	assert.ErrorContains(t, err, `unknown reporter "html"`)

	_, _, err = execute(t, "compare", want, got, "--config", filepath.Join(dir, "nope.yaml"))
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestCompare_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"count": 1}`)
	got := writeFile(t, dir, "got.json", `{"count": 2}`)
	report := filepath.Join(dir, "report.json")

	_, _, err := execute(t, "compare", want, got, "-o", "json", "--output-file", report)
	assert.Equal(t, ExitMismatch, exitCode(err))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var parsed struct {
		RunID string `json:"runId"`
		Pairs []struct {
			Passed   bool `json:"passed"`
			Failures []struct {
				Path string `json:"path"`
			} `json:"failures"`
		} `json:"pairs"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotEmpty(t, parsed.RunID)
	require.Len(t, parsed.Pairs, 1)
	assert.False(t, parsed.Pairs[0].Passed)
	require.Len(t, parsed.Pairs[0].Failures, 1)
	assert.Equal(t, "count", parsed.Pairs[0].Failures[0].Path)
}

func TestCompare_SelectAndSchema(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"data": {"id": 1}, "requestId": "a"}`)
	got := writeFile(t, dir, "got.json", `{"data": {"id": 1}, "requestId": "b"}`)
	schema := writeFile(t, dir, "schema.json", `{"type": "object", "required": ["id"]}`)

	out, _, err := execute(t, "compare", want, got, "--no-color", "--select", "data", "--schema", schema)

	require.NoError(t, err)
	assert.Contains(t, out, "1 equivalent")
}

func TestCompare_EnvDefaults(t *testing.T) {
	t.Setenv("EQUIVSPEC_STRICT_ORDERING", "true")
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `[1, 2]`)
	got := writeFile(t, dir, "got.json", `[2, 1]`)

	_, _, err := execute(t, "compare", want, got, "--no-color")

	assert.Equal(t, ExitMismatch, exitCode(err))
}

func TestInitAndValidate(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created:")
	path := filepath.Join(dir, ".equivspec.yaml")
	assert.FileExists(t, path)

	_, _, err = execute(t, "init", "--dir", dir)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "init", "--dir", dir, "--force")
	assert.NoError(t, err)

	out, _, err = execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: "+path+" (defaults only)")
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "policy:\n  enums: sideways\nconcurrency: -1\n")
	good := writeFile(t, dir, "good.json", `{"policy": {"strictOrdering": true}}`)

	out, stderr, err := execute(t, "validate", good, bad)

	assert.Equal(t, ExitConfigError, exitCode(err))
	assert.Contains(t, out, "Valid: "+good+"\n")
	assert.Contains(t, stderr, "Error in "+bad)
	assert.Contains(t, stderr, "concurrency must not be negative")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "equivspec version dev")
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "equivspec")

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	watched := writeFile(t, dir, "got.json", `{}`)
	writeFile(t, dir, "other.json", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{watched}, 10*time.Millisecond, slog.New(slog.DiscardHandler), func(name string) {
			changed <- name
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "other.json", `{"ignored": true}`)
	writeFile(t, dir, "got.json", `{"changed": true}`)

	select {
	case name := <-changed:
		assert.Equal(t, "got.json", filepath.Base(name))
	case <-time.After(5 * time.Second):
		t.Fatal("no change was reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCompare_PrepareReadsConfigAgain(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "want.json", `{"tags": ["a", "b"]}`)
	got := writeFile(t, dir, "got.json", `{"tags": ["b", "a"]}`)
	cfgPath := writeFile(t, dir, "watch.equivspec.yaml", "policy:\n  strictOrdering: true\n")
	pairs := []runner.Pair{{Name: "got.json vs want.json", Expectation: want, Subject: got}}

	opts := &compareOptions{configFile: cfgPath, noColor: true}
	cmd := newCompareCmd()
	var out bytes.Buffer
	log := slog.New(slog.DiscardHandler)

	strict, err := opts.prepare(cmd, &out, log)
	require.NoError(t, err)
	result, err := strict.run(pairs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	writeFile(t, dir, "watch.equivspec.yaml", "policy:\n  strictOrdering: false\n")
	relaxed, err := opts.prepare(cmd, &out, log)
	require.NoError(t, err)
	result, err = relaxed.run(pairs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)

	writeFile(t, dir, "watch.equivspec.yaml", "concurrency: -1\n")
	_, err = opts.prepare(cmd, &out, log)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitMismatch, exitCode(withExitCode(ExitMismatch, nil)))
	assert.Equal(t, ExitUsageError, exitCode(assert.AnError))
	assert.Equal(t, "exit status 2", withExitCode(ExitInputError, nil).Error())
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, logLevel(0))
	assert.Equal(t, slog.LevelInfo, logLevel(1))
	assert.Equal(t, slog.LevelDebug, logLevel(3))
}

func TestNewLogger_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, slog.LevelInfo)

	log.Info("compared pairs", "passed", 2)

	assert.Contains(t, buf.String(), `msg="compared pairs" passed=2`)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("EQUIVSPEC_TEST_STRING", "value")
	t.Setenv("EQUIVSPEC_TEST_BOOL", "yes")
	t.Setenv("EQUIVSPEC_TEST_INT", "7")
	t.Setenv("EQUIVSPEC_TEST_BAD_INT", "seven")

	assert.Equal(t, "value", getEnvString("EQUIVSPEC_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnvString("EQUIVSPEC_TEST_UNSET", "default"))
	assert.True(t, getEnvBool("EQUIVSPEC_TEST_BOOL", false))
	assert.Equal(t, 7, getEnvInt("EQUIVSPEC_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("EQUIVSPEC_TEST_BAD_INT", 1))
}

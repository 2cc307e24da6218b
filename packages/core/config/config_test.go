package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"console"}, cfg.Reporters)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.False(t, cfg.GetParallel())
	assert.False(t, cfg.GetBail())
	assert.Equal(t, equivalency.DefaultMaxRecursionDepth, cfg.Policy.MaxDepth)
	assert.True(t, cfg.IsDefault())
	assert.NoError(t, cfg.Validate())
}

func TestGetters_NilPointersUseDefaults(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.GetParallel())
	assert.False(t, cfg.GetVerbose())
	assert.False(t, cfg.GetNoColor())
	assert.False(t, cfg.GetTrace())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".equivspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy:
  strictOrderingFor: [lines]
  exclude: ["audit.*"]
  enums: name
  maxDepth: 4
reporters: [console, junit]
parallel: true
concurrency: 2
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"lines"}, cfg.Policy.StrictOrderingFor)
	assert.Equal(t, []string{"audit.*"}, cfg.Policy.Exclude)
	assert.Equal(t, EnumsByName, cfg.Policy.Enums)
	assert.Equal(t, 4, cfg.Policy.MaxDepth)
	assert.Equal(t, CyclicFail, cfg.Policy.CyclicReferences, "unset values keep their defaults")
	assert.Equal(t, []string{"console", "junit"}, cfg.Reporters)
	assert.True(t, cfg.GetParallel())
	assert.Equal(t, 2, cfg.Concurrency)
	assert.False(t, cfg.IsDefault())
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "equivspec.config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"policy": {"ignoreCase": true}, "bail": true}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, *cfg.Policy.IgnoreCase)
	assert.True(t, cfg.GetBail())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, ".equivspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: [not, a, map]"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file yields defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("yaml wins over json", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".equivspec.yml"), []byte("concurrency: 3\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".equivspecrc.json"), []byte(`{"concurrency": 9}`), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Concurrency)
	})
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Policy.Exclude = []string{"id"}

	merged := base.Merge(&Config{
		Policy: Policy{
			Exclude:        []string{"audit"},
			StrictOrdering: BoolPtr(true),
			Enums:          EnumsByName,
		},
		Schema:  "schema.json",
		Bail:    BoolPtr(true),
		NoColor: BoolPtr(true),
	})

	assert.Equal(t, []string{"id", "audit"}, merged.Policy.Exclude)
	assert.True(t, *merged.Policy.StrictOrdering)
	assert.Equal(t, EnumsByName, merged.Policy.Enums)
	assert.Equal(t, CyclicFail, merged.Policy.CyclicReferences)
	assert.Equal(t, "schema.json", merged.Schema)
	assert.True(t, merged.GetBail())
	assert.True(t, merged.GetNoColor())
	assert.Equal(t, []string{"id"}, base.Policy.Exclude, "the receiver is not modified")
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{".equivspec.yaml", "equivspec.config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Policy.Include = []string{"orders.**"}

			require.NoError(t, cfg.SaveConfig(path))
			loaded, err := LoadConfig(path)
			require.NoError(t, err)

			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = -1
	cfg.Reporters = []string{"console", "html"}
	cfg.Policy.Enums = "ordinal"
	cfg.Policy.CyclicReferences = "explode"
	cfg.Policy.Exclude = []string{"orders.{id"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must not be negative")
	assert.Contains(t, err.Error(), `unknown reporter "html"`)
	assert.Contains(t, err.Error(), "policy.enums")
	assert.Contains(t, err.Error(), "policy.cyclicReferences")
	assert.ErrorIs(t, err, equivalency.ErrInvalidSelector)
}

func TestPolicy_Configure(t *testing.T) {
	policy := DefaultPolicy().Merge(&Policy{
		StrictOrderingFor: []string{"lines"},
		Exclude:           []string{"audit"},
		AutoConversion:    BoolPtr(true),
		Enums:             EnumsByName,
		CyclicReferences:  CyclicIgnore,
		MaxDepth:          3,
		IgnoreCase:        BoolPtr(true),
	})

	opts, err := equivalency.Configured(policy.Configure())
	require.NoError(t, err)

	assert.True(t, opts.IsStrictOrdering("lines"))
	assert.False(t, opts.IsStrictOrdering("tags"))
	assert.True(t, opts.IsConversionEnabled("anything"))
	assert.Equal(t, equivalency.EnumByName, opts.EnumHandling())
	assert.Equal(t, equivalency.IgnoreCyclicReference, opts.CyclicReferenceHandling())
	assert.Equal(t, 3, opts.MaxRecursionDepth())
	assert.Contains(t, opts.String(), "- Ignore case of strings")
}

func TestPolicy_ConfigureCompares(t *testing.T) {
	policy := Policy{Exclude: []string{"updatedAt"}, IgnoreCase: BoolPtr(true)}

	subject := map[string]any{"status": "PAID", "updatedAt": "2024-02-01"}
	expectation := map[string]any{"status": "paid", "updatedAt": "2024-01-01"}

	failures, err := equivalency.AreEquivalent(subject, expectation, policy.Configure())
	require.NoError(t, err)
	assert.Empty(t, failures)
}

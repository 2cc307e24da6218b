package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the equivspec configuration
type Config struct {
	Policy      Policy   `json:"policy" yaml:"policy"`
	Select      string   `json:"select,omitempty" yaml:"select,omitempty"`       // gjson path compared in every document
	Schema      string   `json:"schema,omitempty" yaml:"schema,omitempty"`       // JSON schema every subject must match
	Reporters   []string `json:"reporters,omitempty" yaml:"reporters,omitempty"` // Output reporters
	OutputDir   string   `json:"outputDir,omitempty" yaml:"outputDir,omitempty"` // Directory for output files
	Parallel    *bool    `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	Concurrency int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"` // Number of parallel comparisons
	Bail        *bool    `json:"bail,omitempty" yaml:"bail,omitempty"`
	Verbose     *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor     *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Trace       *bool    `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetTrace returns the trace setting, defaulting to false
func (c *Config) GetTrace() bool {
	return getBool(c.Trace, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".equivspec.yaml",
	".equivspec.yml",
	"equivspec.config.json",
	".equivspecrc.json",
}

// Reporters lists the known output reporters.
var Reporters = []string{"console", "json", "junit", "tap"}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy
	result.Policy = c.Policy.Merge(&other.Policy)

	if other.Select != "" {
		result.Select = other.Select
	}
	if other.Schema != "" {
		result.Schema = other.Schema
	}
	if other.OutputDir != "" {
		result.OutputDir = other.OutputDir
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Trace != nil {
		result.Trace = other.Trace
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}

	return &result
}

// Validate checks the configuration for values no comparison can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	for _, r := range c.Reporters {
		if !slices.Contains(Reporters, r) {
			errs = append(errs, fmt.Errorf("unknown reporter %q (expected one of %s)", r, strings.Join(Reporters, ", ")))
		}
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SaveConfig saves the configuration to a file, as YAML when the file name
// ends in .yaml or .yml and as JSON otherwise.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

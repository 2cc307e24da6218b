package config

import (
	"reflect"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Policy:      DefaultPolicy(),
		Reporters:   []string{"console"},
		Parallel:    BoolPtr(false),
		Concurrency: 5,
		Bail:        BoolPtr(false),
		Verbose:     BoolPtr(false),
		NoColor:     BoolPtr(false),
		Trace:       BoolPtr(false),
	}
}

// DefaultPolicy returns the comparison policy the engine uses by default.
func DefaultPolicy() Policy {
	return Policy{
		StrictOrdering:   BoolPtr(false),
		ExcludeMissing:   BoolPtr(false),
		AutoConversion:   BoolPtr(false),
		Enums:            EnumsByValue,
		CyclicReferences: CyclicFail,
		MaxDepth:         equivalency.DefaultMaxRecursionDepth,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	return reflect.DeepEqual(c, DefaultConfig())
}

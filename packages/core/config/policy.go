package config

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

const (
	EnumsByValue = "value"
	EnumsByName  = "name"

	CyclicFail   = "fail"
	CyclicIgnore = "ignore"
)

// Policy is the comparison policy shared by every compared pair.
type Policy struct {
	StrictOrdering    *bool    `json:"strictOrdering,omitempty" yaml:"strictOrdering,omitempty"`
	StrictOrderingFor []string `json:"strictOrderingFor,omitempty" yaml:"strictOrderingFor,omitempty"`
	LooseOrderingFor  []string `json:"looseOrderingFor,omitempty" yaml:"looseOrderingFor,omitempty"`
	Include           []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude           []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	ExcludeMissing    *bool    `json:"excludeMissing,omitempty" yaml:"excludeMissing,omitempty"`
	AutoConversion    *bool    `json:"autoConversion,omitempty" yaml:"autoConversion,omitempty"`
	AutoConversionFor []string `json:"autoConversionFor,omitempty" yaml:"autoConversionFor,omitempty"`
	Enums             string   `json:"enums,omitempty" yaml:"enums,omitempty"`                       // value or name
	CyclicReferences  string   `json:"cyclicReferences,omitempty" yaml:"cyclicReferences,omitempty"` // fail or ignore
	MaxDepth          int      `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	InfiniteRecursion *bool    `json:"infiniteRecursion,omitempty" yaml:"infiniteRecursion,omitempty"`

	IgnoreCase               *bool `json:"ignoreCase,omitempty" yaml:"ignoreCase,omitempty"`
	IgnoreLeadingWhitespace  *bool `json:"ignoreLeadingWhitespace,omitempty" yaml:"ignoreLeadingWhitespace,omitempty"`
	IgnoreTrailingWhitespace *bool `json:"ignoreTrailingWhitespace,omitempty" yaml:"ignoreTrailingWhitespace,omitempty"`
	IgnoreNewlineStyle       *bool `json:"ignoreNewlineStyle,omitempty" yaml:"ignoreNewlineStyle,omitempty"`
}

// Merge returns p with the settings of other applied over it. Lists are
// appended, other values replaced when set.
func (p Policy) Merge(other *Policy) Policy {
	if other == nil {
		return p
	}
	result := p

	setBool := func(dst **bool, src *bool) {
		if src != nil {
			*dst = src
		}
	}
	setBool(&result.StrictOrdering, other.StrictOrdering)
	setBool(&result.ExcludeMissing, other.ExcludeMissing)
	setBool(&result.AutoConversion, other.AutoConversion)
	setBool(&result.InfiniteRecursion, other.InfiniteRecursion)
	setBool(&result.IgnoreCase, other.IgnoreCase)
	setBool(&result.IgnoreLeadingWhitespace, other.IgnoreLeadingWhitespace)
	setBool(&result.IgnoreTrailingWhitespace, other.IgnoreTrailingWhitespace)
	setBool(&result.IgnoreNewlineStyle, other.IgnoreNewlineStyle)

	result.StrictOrderingFor = append(append([]string(nil), p.StrictOrderingFor...), other.StrictOrderingFor...)
	result.LooseOrderingFor = append(append([]string(nil), p.LooseOrderingFor...), other.LooseOrderingFor...)
	result.Include = append(append([]string(nil), p.Include...), other.Include...)
	result.Exclude = append(append([]string(nil), p.Exclude...), other.Exclude...)
	result.AutoConversionFor = append(append([]string(nil), p.AutoConversionFor...), other.AutoConversionFor...)

	if other.Enums != "" {
		result.Enums = other.Enums
	}
	if other.CyclicReferences != "" {
		result.CyclicReferences = other.CyclicReferences
	}
	if other.MaxDepth > 0 {
		result.MaxDepth = other.MaxDepth
	}
	return result
}

// Configure turns the policy into equivalency options.
func (p Policy) Configure() equivalency.Configure {
	return func(c *equivalency.Configurator) *equivalency.Configurator {
		if getBool(p.StrictOrdering, false) {
			c = c.WithStrictOrdering()
		}
		if len(p.StrictOrderingFor) > 0 {
			c = c.WithStrictOrderingFor(p.StrictOrderingFor...)
		}
		if len(p.LooseOrderingFor) > 0 {
			c = c.WithoutStrictOrderingFor(p.LooseOrderingFor...)
		}
		if len(p.Include) > 0 {
			c = c.Including(p.Include...)
		}
		if len(p.Exclude) > 0 {
			c = c.Excluding(p.Exclude...)
		}
		if getBool(p.ExcludeMissing, false) {
			c = c.ExcludingMissingMembers()
		}
		if getBool(p.AutoConversion, false) {
			c = c.WithAutoConversion()
		}
		if len(p.AutoConversionFor) > 0 {
			c = c.WithAutoConversionFor(p.AutoConversionFor...)
		}
		if p.Enums == EnumsByName {
			c = c.ComparingEnumsByName()
		}
		if p.CyclicReferences == CyclicIgnore {
			c = c.IgnoringCyclicReferences()
		}
		switch {
		case getBool(p.InfiniteRecursion, false):
			c = c.AllowingInfiniteRecursion()
		case p.MaxDepth > 0:
			c = c.WithMaxRecursionDepth(p.MaxDepth)
		}
		if getBool(p.IgnoreCase, false) {
			c = c.IgnoringCase()
		}
		if getBool(p.IgnoreLeadingWhitespace, false) {
			c = c.IgnoringLeadingWhitespace()
		}
		if getBool(p.IgnoreTrailingWhitespace, false) {
			c = c.IgnoringTrailingWhitespace()
		}
		if getBool(p.IgnoreNewlineStyle, false) {
			c = c.IgnoringNewlineStyle()
		}
		return c
	}
}

// Validate checks the policy values and the member patterns it carries.
func (p Policy) Validate() error {
	var errs []error
	switch p.Enums {
	case "", EnumsByValue, EnumsByName:
	default:
		errs = append(errs, fmt.Errorf("policy.enums must be %q or %q, got %q", EnumsByValue, EnumsByName, p.Enums))
	}
	switch p.CyclicReferences {
	case "", CyclicFail, CyclicIgnore:
	default:
		errs = append(errs, fmt.Errorf("policy.cyclicReferences must be %q or %q, got %q", CyclicFail, CyclicIgnore, p.CyclicReferences))
	}
	if p.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("policy.maxDepth must not be negative, got %d", p.MaxDepth))
	}
	if _, err := equivalency.Configured(p.Configure()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Package config handles configuration loading and management for equivspec.
//
// It provides functionality for:
//   - Loading configuration from .equivspec.yaml, .equivspec.yml or JSON files
//   - Default configuration values
//   - Merging command line overrides over file settings
//   - Turning the comparison policy into equivalency options
package config

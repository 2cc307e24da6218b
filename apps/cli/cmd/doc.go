// Package cmd implements the equivspec CLI commands using Cobra.
//
// Available commands:
//   - compare: Compare expectation and subject documents structurally
//   - validate: Check configuration files without comparing anything
//   - init: Create a default .equivspec.yaml
//   - version: Show equivspec version information
//   - completion: Generate shell completion scripts
//
// The CLI supports flags for the comparison policy, document selection,
// schema validation, output formatting, parallel execution and watch mode.
package cmd

// Package runner compares pairs of documents and collects the results.
//
// It provides functionality for:
//   - Loading the expectation and subject of every pair
//   - Narrowing both documents to a gjson path before comparing
//   - Validating subjects against a JSON schema
//   - Parallel comparison with configurable concurrency
//   - Stopping at the first mismatch in sequential mode
//
// Differences are reported as equivalency failures on each PairResult.
// Pairs that cannot be loaded or compared carry an Error instead.
package runner

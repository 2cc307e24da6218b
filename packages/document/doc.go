// Package document loads JSON and YAML documents for comparison.
//
// Documents are normalized to the shapes encoding/json produces when decoding
// into an interface value: map[string]any, []any, float64, string, bool and
// nil. Two documents loaded from different formats therefore compare equal
// when they carry the same data.
//
// Subtrees are addressed with gjson paths (data.items.0.id, with [0] bracket
// indices accepted as well) and may be validated against a JSON schema file.
package document

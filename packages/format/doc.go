// Package format renders arbitrary Go values for assertion failure messages.
//
// Rendering conventions:
//   - nil values render as <nil>
//   - strings are quoted
//   - enums (defined integer types) render as Type.Name(value)
//   - collections render as {a, b, c}, truncated after MaxItems entries
//   - maps render as {"key": value} with sorted keys
//   - times render as <RFC3339>
//   - structs render through go-spew with pointer addresses disabled
//
// Dump and Diff produce multi-line output for detailed reports.
package format

// Package snapshot stores values as JSON snapshots and compares later values
// against them with the equivalency engine.
//
// Snapshots for a source file live in __snapshots__/<name>.snap.json, under
// the manager's base directory or next to the source file, keyed by snapshot
// name. Values are normalized to the JSON data model before they are stored
// or compared, and collections are compared in order.
package snapshot

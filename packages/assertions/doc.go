// Package assertions provides fluent test assertions on top of the
// equivalency engine.
//
//	assertions.That(t, got).As("order").
//		Because("the order was {0}", "paid").
//		BeEquivalentTo(want, func(c *equivalency.Configurator) *equivalency.Configurator {
//			return c.Excluding("Audit")
//		})
//
// Every assertion reports through Fail, which renders a message template:
//   - {0}, {1}, ... are replaced by the formatted arguments
//   - {reason} is replaced by the reason, prefixed with "because" when needed
//   - {context} and {context:fallback} name the value under test
//
// Failures are reported to the test immediately, unless the assertion runs
// inside a Scope, which collects them and reports once when closed.
//
// Supported assertions include equivalency and equality, nil checks, string
// containment and prefixes, regular expressions, lengths, JSON type names,
// numeric bounds, JSON schema validation and snapshots. ThatJSON selects a
// subtree of a JSON body with a gjson path before asserting on it.
package assertions

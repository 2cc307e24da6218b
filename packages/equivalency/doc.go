// Package equivalency compares two object graphs structurally and reports
// every difference it finds.
//
// A comparison walks the expectation graph. For every node it runs an
// ordered chain of steps (custom comparers, nil handling, strings, enums,
// value objects, collections, maps, tuples and finally member-by-member
// struct comparison) until one of them claims the node. Differences are
// collected as Failure values rather than returned one at a time, so a
// single run describes everything that differs.
//
// Options are built with a Configurator:
//
//	failures, err := equivalency.AreEquivalent(got, want, func(c *equivalency.Configurator) *equivalency.Configurator {
//		return c.Excluding("Audit.*").
//			WithStrictOrderingFor("Lines").
//			Using(equivalency.Compare(func(got, want time.Time) error {
//				if got.Sub(want).Abs() > time.Second {
//					return fmt.Errorf("%s is more than 1s away", got)
//				}
//				return nil
//			}))
//	})
//
// Invalid configuration is reported through the returned error, which
// wraps one of ErrArgumentNil, ErrInvalidOperation or ErrInvalidSelector.
// Differences between the graphs never produce an error.
package equivalency

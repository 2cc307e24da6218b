package assertions

import (
	"errors"
	"runtime"

	"github.com/abdul-hamid-achik/equivspec/packages/snapshot"
)

// MatchSnapshot asserts that the subject matches the snapshot called name.
// Snapshots are stored next to the calling test file. A nil manager uses
// the global snapshot manager.
func (a *Assertion) MatchSnapshot(manager *snapshot.Manager, name string) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	if manager == nil {
		manager = snapshot.GetGlobalManager()
	}
	if manager == nil {
		return misuse(a.t, errors.New("snapshot manager not initialized"))
	}
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return misuse(a.t, errors.New("cannot determine the calling file for snapshots"))
	}

	result := manager.Compare(file, name, a.subject)
	if result.Passed {
		return true
	}
	return a.failWith(result.Message, "Expected {context:value} to match its snapshot{reason}:")
}

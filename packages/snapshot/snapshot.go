package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/equivspec/packages/document"
	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
)

// Manager handles snapshot storage and comparison. It is safe for
// concurrent use.
type Manager struct {
	baseDir    string
	updateMode bool
	configure  []equivalency.Configure

	mu            sync.Mutex
	snapshotsRead map[string]map[string]any // file -> {name -> value}
}

// NewManager creates a new snapshot manager. configure adjusts the
// equivalency options snapshots are compared with, on top of strict ordering.
func NewManager(baseDir string, updateMode bool, configure ...equivalency.Configure) *Manager {
	return &Manager{
		baseDir:       baseDir,
		updateMode:    updateMode,
		configure:     configure,
		snapshotsRead: make(map[string]map[string]any),
	}
}

// Result represents the result of a snapshot comparison.
type Result struct {
	Passed     bool
	Message    string
	Expected   any
	Actual     any
	Failures   []equivalency.Failure
	IsNew      bool
	WasUpdated bool
}

// Compare compares actual against the snapshot called name for sourceFile.
// In update mode missing or differing snapshots are (re)written and the
// comparison passes. An empty name uses a hash of the value.
func (m *Manager) Compare(sourceFile, name string, actual any) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized, err := document.Normalize(actual)
	if err != nil {
		return &Result{Actual: actual, Message: err.Error()}
	}
	result := &Result{Actual: normalized}

	snapshotFile := m.FilePath(sourceFile)
	key := m.generateKey(name, normalized)

	snapshots, err := m.loadSnapshots(snapshotFile)
	if err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	expected, exists := snapshots[key]
	if !exists {
		if !m.updateMode {
			result.Message = fmt.Sprintf("snapshot %q does not exist (run with update mode to create it)", key)
			return result
		}
		snapshots[key] = normalized
		if err := m.saveSnapshots(snapshotFile, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = normalized
		result.Message = "new snapshot created"
		return result
	}

	result.Expected = expected

	configure := append([]equivalency.Configure{strictOrdering}, m.configure...)
	failures, err := equivalency.AreEquivalent(normalized, expected, configure...)
	if err != nil {
		result.Message = fmt.Sprintf("failed to compare snapshot: %v", err)
		return result
	}
	if len(failures) == 0 {
		result.Passed = true
		return result
	}

	if m.updateMode {
		snapshots[key] = normalized
		if err := m.saveSnapshots(snapshotFile, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to update snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result
	}

	result.Failures = failures
	result.Message = fmt.Sprintf("snapshot %q mismatch:\n%s", key, equivalency.Join(failures))
	return result
}

func strictOrdering(c *equivalency.Configurator) *equivalency.Configurator {
	return c.WithStrictOrdering()
}

// FilePath returns the path of the snapshot file for sourceFile. Snapshot
// files live in the base directory when one is set, next to the source file
// otherwise.
func (m *Manager) FilePath(sourceFile string) string {
	dir := filepath.Dir(sourceFile)
	if m.baseDir != "" {
		dir = m.baseDir
	}
	base := filepath.Base(sourceFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, SnapshotDir, name+SnapshotExt)
}

func (m *Manager) generateKey(name string, value any) string {
	if name != "" {
		return name
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
	return "anon_" + hex.EncodeToString(hash[:8])
}

func (m *Manager) loadSnapshots(path string) (map[string]any, error) {
	if cached, ok := m.snapshotsRead[path]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	snapshots := make(map[string]any)
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}

	m.snapshotsRead[path] = snapshots
	return snapshots, nil
}

func (m *Manager) saveSnapshots(path string, snapshots map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	m.snapshotsRead[path] = snapshots
	return os.WriteFile(path, data, 0644)
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager
)

// SetGlobalManager sets the manager used when none is passed explicitly.
func SetGlobalManager(m *Manager) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = m
}

// GetGlobalManager returns the global snapshot manager, or nil.
func GetGlobalManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// CompareSnapshot compares actual using the global manager.
func CompareSnapshot(sourceFile, name string, actual any) *Result {
	m := GetGlobalManager()
	if m == nil {
		return &Result{
			Message: "snapshot manager not initialized",
			Actual:  actual,
		}
	}
	return m.Compare(sourceFile, name, actual)
}

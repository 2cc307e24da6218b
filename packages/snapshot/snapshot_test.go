package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/equivspec/packages/equivalency"
)

func TestManager_Compare_NewSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, true) // Update mode enabled

	result := manager.Compare(sourceFile, "getOrder", map[string]any{
		"id":   1,
		"name": "John",
	})

	if !result.Passed {
		t.Errorf("expected passed to be true, got false: %s", result.Message)
	}
	if !result.IsNew {
		t.Error("expected IsNew to be true")
	}

	snapshotPath := filepath.Join(tmpDir, SnapshotDir, "orders_test.snap.json")
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		t.Error("expected snapshot file to be created")
	}
}

func TestManager_Compare_ExistingSnapshot_Match(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, true)

	data := map[string]any{"id": 1, "name": "John", "tags": []string{"a", "b"}}
	result := manager.Compare(sourceFile, "getOrder", data)
	if !result.Passed || !result.IsNew {
		t.Fatal("failed to create initial snapshot")
	}

	// A fresh manager reads the snapshot back from disk.
	manager2 := NewManager(tmpDir, false)
	result = manager2.Compare(sourceFile, "getOrder", data)

	if !result.Passed {
		t.Errorf("expected match, got: %s", result.Message)
	}
}

func TestManager_Compare_ExistingSnapshot_Mismatch(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, true)

	result := manager.Compare(sourceFile, "getOrder", map[string]any{
		"id":   1,
		"name": "John",
	})
	if !result.Passed || !result.IsNew {
		t.Fatal("failed to create initial snapshot")
	}

	manager2 := NewManager(tmpDir, false)
	result = manager2.Compare(sourceFile, "getOrder", map[string]any{
		"id":   2,
		"name": "Jane",
	})

	if result.Passed {
		t.Fatal("expected mismatch, got passed")
	}
	if len(result.Failures) != 2 {
		t.Errorf("expected 2 failures, got %d: %v", len(result.Failures), result.Failures)
	}
	if !strings.HasPrefix(result.Message, `snapshot "getOrder" mismatch:`) {
		t.Errorf("unexpected message: %s", result.Message)
	}
	if !strings.Contains(result.Message, `"Jane"`) {
		t.Errorf("expected message to mention the new value, got: %s", result.Message)
	}
}

func TestManager_Compare_OrderMatters(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "list_test.go")

	manager := NewManager(tmpDir, true)
	if result := manager.Compare(sourceFile, "ids", []int{1, 2, 3}); !result.IsNew {
		t.Fatal("failed to create initial snapshot")
	}

	result := NewManager(tmpDir, false).Compare(sourceFile, "ids", []int{3, 2, 1})
	if result.Passed {
		t.Error("expected reordered items to mismatch a snapshot")
	}
}

func TestManager_Compare_Configure(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "audit_test.go")

	manager := NewManager(tmpDir, true)
	manager.Compare(sourceFile, "event", map[string]any{"kind": "created", "at": "2024-01-01"})

	loose := NewManager(tmpDir, false, func(c *equivalency.Configurator) *equivalency.Configurator {
		return c.IgnoringCase()
	})
	result := loose.Compare(sourceFile, "event", map[string]any{"kind": "CREATED", "at": "2024-01-01"})
	if !result.Passed {
		t.Errorf("expected case-insensitive match, got: %s", result.Message)
	}
}

func TestManager_Compare_UpdateExisting(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, true)

	result := manager.Compare(sourceFile, "getOrder", map[string]any{"name": "John"})
	if !result.Passed || !result.IsNew {
		t.Fatal("failed to create initial snapshot")
	}

	result = manager.Compare(sourceFile, "getOrder", map[string]any{"name": "Jane"})

	if !result.Passed {
		t.Errorf("expected passed, got: %s", result.Message)
	}
	if !result.WasUpdated {
		t.Error("expected WasUpdated to be true")
	}
}

func TestManager_Compare_NoSnapshotNoUpdateMode(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, false)

	result := manager.Compare(sourceFile, "getOrder", map[string]any{"name": "John"})

	if result.Passed {
		t.Error("expected failure when no snapshot exists and update mode disabled")
	}
}

func TestManager_Compare_SeparateNames(t *testing.T) {
	tmpDir := t.TempDir()
	sourceFile := filepath.Join(tmpDir, "orders_test.go")

	manager := NewManager(tmpDir, true)

	if result := manager.Compare(sourceFile, "single", map[string]any{"id": 1}); !result.IsNew {
		t.Fatal("failed to create initial snapshot")
	}
	if result := manager.Compare(sourceFile, "list", []any{1, 2, 3}); !result.IsNew {
		t.Fatal("failed to create second snapshot")
	}

	manager2 := NewManager(tmpDir, false)

	if result := manager2.Compare(sourceFile, "single", map[string]any{"id": 1}); !result.Passed {
		t.Errorf("first snapshot mismatch: %s", result.Message)
	}
	if result := manager2.Compare(sourceFile, "list", []any{1, 2, 3}); !result.Passed {
		t.Errorf("second snapshot mismatch: %s", result.Message)
	}
}

func TestManager_FilePath(t *testing.T) {
	manager := NewManager("/work", false)

	got := manager.FilePath("/src/pkg/orders_test.go")
	want := filepath.Join("/work", SnapshotDir, "orders_test"+SnapshotExt)
	if got != want {
		t.Errorf("FilePath: got %q, expected %q", got, want)
	}

	got = NewManager("", false).FilePath("/src/pkg/orders_test.go")
	want = filepath.Join("/src/pkg", SnapshotDir, "orders_test"+SnapshotExt)
	if got != want {
		t.Errorf("FilePath without base: got %q, expected %q", got, want)
	}
}

func TestGenerateKey(t *testing.T) {
	manager := NewManager(".", false)

	if key := manager.generateKey("response", nil); key != "response" {
		t.Errorf("expected named key, got %q", key)
	}
	key := manager.generateKey("", map[string]any{"id": 1})
	if !strings.HasPrefix(key, "anon_") {
		t.Errorf("expected key starting with 'anon_', got %q", key)
	}
	if again := manager.generateKey("", map[string]any{"id": 1}); again != key {
		t.Errorf("expected anonymous keys to be stable, got %q and %q", key, again)
	}
}

func TestCompareSnapshot_GlobalManager(t *testing.T) {
	SetGlobalManager(nil)
	if result := CompareSnapshot("x_test.go", "x", 1); result.Passed {
		t.Error("expected failure without a global manager")
	}

	tmpDir := t.TempDir()
	SetGlobalManager(NewManager(tmpDir, true))
	t.Cleanup(func() { SetGlobalManager(nil) })

	if result := CompareSnapshot(filepath.Join(tmpDir, "x_test.go"), "x", 1); !result.Passed {
		t.Errorf("expected new snapshot, got: %s", result.Message)
	}
}

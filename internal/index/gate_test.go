package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setStoredVersion rewrites the Globals version field directly, simulating a
// store produced by a different release.
func setStoredVersion(t *testing.T, root, version string) {
	t.Helper()
	db, err := openFile(filepath.Join(root, StoreFileName))
	if err != nil {
		t.Fatalf("openFile() failed: %v", err)
	}
	defer db.Close()
	if _, err := db.conn.Exec(`UPDATE Globals SET Version = ? WHERE Id = 1`, version); err != nil {
		t.Fatalf("failed to set version: %v", err)
	}
}

func TestSchemaGate_NewerVersionRefused(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := db.Put(context.Background(), testRecord("r1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	setStoredVersion(t, root, "99.0")

	_, err = Open(root, false)
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("Open() error = %v, want ErrUnsupportedSchema", err)
	}

	// The refused store must be left untouched: reopening with the original
	// version still finds the record.
	setStoredVersion(t, root, SchemaVersion)
	db, err = Open(root, false)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	rec, err := db.GetByRemoteID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetByRemoteID() failed: %v", err)
	}
	if rec == nil {
		t.Error("record lost after refused open; gate must not modify the store")
	}
}

func TestSchemaGate_OlderVersionRebuilds(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := db.Put(context.Background(), testRecord("r1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	setStoredVersion(t, root, "1.9")

	db, err = Open(root, false)
	if err != nil {
		t.Fatalf("Open() after downgrade failed: %v", err)
	}
	defer db.Close()

	if db.State() != GateMigrated {
		t.Errorf("State() = %v, want %v", db.State(), GateMigrated)
	}

	// Old store preserved aside for manual recovery.
	previous := filepath.Join(root, StoreFileName+PreviousStoreSuffix)
	if _, err := os.Stat(previous); err != nil {
		t.Errorf("previous store not preserved at %s: %v", previous, err)
	}

	// Fresh schema at the supported version, with no records.
	version, err := db.Version()
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("Version() = %q, want %q", version, SchemaVersion)
	}
	count, err := db.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("CountRecords() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("CountRecords() = %d after rebuild, want 0", count)
	}
}

func TestSchemaGate_CurrentVersionNoSideEffects(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := db.Put(context.Background(), testRecord("r1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	db, err = Open(root, false)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	if db.State() != GateCurrent {
		t.Errorf("State() = %v, want %v", db.State(), GateCurrent)
	}
	rec, err := db.GetByRemoteID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetByRemoteID() failed: %v", err)
	}
	if rec == nil {
		t.Error("record lost across a clean reopen")
	}
	if _, err := os.Stat(filepath.Join(root, StoreFileName+PreviousStoreSuffix)); err == nil {
		t.Error("gate renamed the store aside on a current-version open")
	}
}

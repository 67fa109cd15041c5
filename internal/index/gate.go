package index

import (
	"fmt"
	"os"
	"strconv"
)

// SchemaVersion is the catalog schema version this build reads and writes.
// Stored as text in Globals.Version and compared numerically.
const SchemaVersion = "2.3"

// PreviousStoreSuffix is appended to the store file when an out-of-date
// schema forces a rebuild, preserving the old catalog for manual recovery.
const PreviousStoreSuffix = ".previous"

// GateState is the outcome of the schema version check performed at open.
type GateState int

const (
	// GateUnchecked means the version gate has not run yet.
	GateUnchecked GateState = iota
	// GateCurrent means the stored version matches this build.
	GateCurrent
	// GateMigrated means the old store was renamed aside and an empty
	// schema was created. All records must be rediscovered by a full run.
	GateMigrated
	// GateFatal means the stored version is newer than this build supports.
	GateFatal
)

// String returns a human-readable representation of the gate state.
func (s GateState) String() string {
	switch s {
	case GateUnchecked:
		return "unchecked"
	case GateCurrent:
		return "current"
	case GateMigrated:
		return "migrated"
	case GateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// State reports the outcome of the schema gate for this handle.
func (db *DB) State() GateState {
	return db.state
}

// Version returns the schema version stored in the catalog.
func (db *DB) Version() (string, error) {
	var version string
	err := db.conn.QueryRow(`SELECT Version FROM Globals WHERE Id = 1`).Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// checkSchemaVersion gates an existing store on its stored schema version.
//
// A version newer than SchemaVersion means the store was produced by a newer
// release and must not be touched: the gate fails with ErrUnsupportedSchema
// and no writes occur. An older version triggers a destructive rebuild, not
// a data migration: the store file is renamed aside with PreviousStoreSuffix
// and an empty schema is created at the supported version. Records must then
// be rediscovered by re-running the sync, which is safe because downloads
// are idempotent by remote id.
func (db *DB) checkSchemaVersion() error {
	stored, err := db.Version()
	if err != nil {
		return err
	}

	storedNo, err := strconv.ParseFloat(stored, 64)
	if err != nil {
		return fmt.Errorf("failed to parse stored schema version %q: %w", stored, err)
	}
	supportedNo, err := strconv.ParseFloat(SchemaVersion, 64)
	if err != nil {
		return fmt.Errorf("failed to parse supported schema version %q: %w", SchemaVersion, err)
	}

	switch {
	case storedNo > supportedNo:
		db.state = GateFatal
		return fmt.Errorf("%w: store is %s, this build supports %s",
			ErrUnsupportedSchema, stored, SchemaVersion)

	case storedNo < supportedNo:
		return db.rebuild()

	default:
		db.state = GateCurrent
		return nil
	}
}

// rebuild renames the out-of-date store aside and reinitializes an empty
// schema at the supported version, reusing the same file path.
func (db *DB) rebuild() error {
	path := db.path
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close out-of-date store: %w", err)
	}
	db.conn = nil

	if err := os.Rename(path, path+PreviousStoreSuffix); err != nil {
		return fmt.Errorf("%w: preserve old store: %v", ErrStoreUnavailable, err)
	}

	reopened, err := openFile(path)
	if err != nil {
		return err
	}
	db.conn = reopened.conn

	if err := db.initSchema(); err != nil {
		return err
	}
	db.state = GateMigrated
	return nil
}

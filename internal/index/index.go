// Package index provides the durable SQLite catalog of synced media.
//
// The index is the source of truth for what has already been mirrored from
// the remote store: one SyncFiles row per materialized item, plus albums,
// album membership, a cached view of the remote folder tree, and a reverse
// lookup from local path to remote id. It is what makes interrupted runs
// resumable without re-downloading or renumbering duplicates.
//
// The database runs in embedded mode (ncruces/go-sqlite3) with WAL enabled.
// A single process owns the store; concurrent writers are out of scope.
//
// Layout:
//   - Database file: <root>/gphotos.sqlite
//   - Schema: SyncFiles, Albums, AlbumFiles, DriveFolders, LocalFiles, Globals
//   - Globals holds the schema version and the incremental scan cursors
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// StoreFileName is the name of the SQLite file under the sync root.
const StoreFileName = "gphotos.sqlite"

// DB wraps the SQLite connection holding the sync catalog.
type DB struct {
	conn  *sql.DB
	path  string
	state GateState
}

// Open opens or creates the catalog under rootFolder.
//
// The root folder is created if missing. A missing store, or flushIndex set,
// initializes a fresh schema. An existing store is passed through the schema
// gate: a newer stored version fails with ErrUnsupportedSchema, an older one
// is renamed aside and rebuilt empty (see gate.go).
//
// The caller MUST call Close() when done; Flush() durably commits pending
// writes and should be called before process exit.
func Open(rootFolder string, flushIndex bool) (*DB, error) {
	if err := os.MkdirAll(rootFolder, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", ErrStoreUnavailable, rootFolder, err)
	}

	path := filepath.Join(rootFolder, StoreFileName)

	fresh := flushIndex
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fresh = true
	}
	if flushIndex {
		// WAL siblings from an unclean shutdown would be replayed into the
		// fresh store; remove them with the main file.
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: flush %s: %v", ErrStoreUnavailable, p, err)
			}
		}
	}

	db, err := openFile(path)
	if err != nil {
		return nil, err
	}

	if fresh {
		if err := db.initSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
		db.state = GateCurrent
		return db, nil
	}

	if err := db.checkSchemaVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// openFile opens the SQLite file and applies connection pragmas.
func openFile(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrStoreUnavailable, path, err)
	}

	// Single writer; keep the pool small.
	conn.SetMaxOpenConns(4)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path, state: GateUnchecked}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, pragma, err)
		}
	}
	return db, nil
}

// initSchema creates the catalog tables and seeds the Globals singleton.
// Idempotent - safe to call on an already initialized store.
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS SyncFiles (
		Id INTEGER PRIMARY KEY,
		RemoteId TEXT NOT NULL UNIQUE,
		Url TEXT,
		Path TEXT NOT NULL,
		FileName TEXT NOT NULL,
		OrigFileName TEXT NOT NULL,
		DuplicateNo INTEGER NOT NULL DEFAULT 0,
		MediaType INTEGER NOT NULL DEFAULT 0,
		FileSize INTEGER,
		Checksum TEXT,
		Description TEXT,
		ModifyDate TEXT,
		CreateDate TEXT,
		SyncDate TEXT,
		SymLink INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS Albums (
		AlbumId TEXT PRIMARY KEY,
		AlbumName TEXT,
		StartDate TEXT,
		EndDate TEXT,
		SyncDate TEXT
	);

	CREATE TABLE IF NOT EXISTS AlbumFiles (
		AlbumRec TEXT NOT NULL,
		DriveRec INTEGER NOT NULL,
		PRIMARY KEY (AlbumRec, DriveRec)
	);

	CREATE TABLE IF NOT EXISTS DriveFolders (
		FolderId TEXT PRIMARY KEY,
		ParentId TEXT,
		FolderName TEXT,
		Path TEXT
	);

	-- Reverse lookup: local (Path, FileName) back to the remote id.
	-- Written in the same transaction as the SyncFiles row.
	CREATE TABLE IF NOT EXISTS LocalFiles (
		Path TEXT NOT NULL,
		FileName TEXT NOT NULL,
		RemoteId TEXT NOT NULL,
		PRIMARY KEY (Path, FileName)
	);

	CREATE TABLE IF NOT EXISTS Globals (
		Id INTEGER PRIMARY KEY,
		Version TEXT NOT NULL,
		LastIndexDrive TEXT,
		LastIndexPicasa TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_syncfiles_local
	    ON SyncFiles(Path, FileName);
	CREATE INDEX IF NOT EXISTS idx_syncfiles_group
	    ON SyncFiles(Path, OrigFileName);
	CREATE INDEX IF NOT EXISTS idx_folders_parent
	    ON DriveFolders(ParentId);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	seed := `INSERT OR IGNORE INTO Globals (Id, Version) VALUES (1, ?)`
	if _, err := db.conn.Exec(seed, SchemaVersion); err != nil {
		return fmt.Errorf("failed to seed globals: %w", err)
	}
	return nil
}

// Path returns the location of the backing store file.
func (db *DB) Path() string {
	return db.path
}

// GetByRemoteID retrieves the record for a remote id.
// Returns (nil, nil) if the id has not been indexed.
func (db *DB) GetByRemoteID(ctx context.Context, remoteID string) (*SyncRecord, error) {
	row := db.conn.QueryRowContext(ctx, selectRecord+` WHERE RemoteId = ?`, remoteID)
	return scanRecord(row)
}

// GetByPath retrieves the record materialized at (path, fileName).
// Returns (nil, nil) if no record matches.
func (db *DB) GetByPath(ctx context.Context, path, fileName string) (*SyncRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		selectRecord+` WHERE Path = ? AND FileName = ?`, path, fileName)
	return scanRecord(row)
}

// GetByLocalFile resolves a local (path, fileName) pair back to its remote id
// through the reverse lookup table. Returns ("", false) when unknown.
func (db *DB) GetByLocalFile(ctx context.Context, path, fileName string) (string, bool, error) {
	var remoteID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT RemoteId FROM LocalFiles WHERE Path = ? AND FileName = ?`,
		path, fileName).Scan(&remoteID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query local file: %w", err)
	}
	return remoteID, true, nil
}

// Put inserts a new record. SyncFiles is insert-only: inserting a remote id
// that already exists returns ErrDuplicateKey.
func (db *DB) Put(ctx context.Context, rec *SyncRecord) (int64, error) {
	res, err := db.conn.ExecContext(ctx, insertRecord, recordArgs(rec)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, rec.RemoteID)
		}
		return 0, fmt.Errorf("failed to insert record %s: %w", rec.RemoteID, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read row id: %w", err)
	}
	return rowID, nil
}

// PutSynced writes the forward record and its reverse lookup row in a single
// transaction. This is the bookkeeping step after a successful download (or
// in index-only mode): on the next run, either row independently confirms
// the item exists.
func (db *DB) PutSynced(ctx context.Context, rec *SyncRecord) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertRecord, recordArgs(rec)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateKey, rec.RemoteID)
		}
		return 0, fmt.Errorf("failed to insert record %s: %w", rec.RemoteID, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read row id: %w", err)
	}

	reverse := `
	INSERT INTO LocalFiles (Path, FileName, RemoteId)
	VALUES (?, ?, ?)
	ON CONFLICT(Path, FileName) DO UPDATE SET
		RemoteId = excluded.RemoteId
	`
	if _, err := tx.ExecContext(ctx, reverse, rec.Path, rec.FileName, rec.RemoteID); err != nil {
		return 0, fmt.Errorf("failed to insert reverse lookup for %s: %w", rec.RemoteID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit record %s: %w", rec.RemoteID, err)
	}
	return rowID, nil
}

// PutLocalFile records (path, fileName) -> remoteID in the reverse lookup
// table, upserting on collision. PutSynced writes this row itself; the
// standalone form serves re-indexing of files already on disk.
func (db *DB) PutLocalFile(ctx context.Context, path, fileName, remoteID string) error {
	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO LocalFiles (Path, FileName, RemoteId)
	VALUES (?, ?, ?)
	ON CONFLICT(Path, FileName) DO UPDATE SET
		RemoteId = excluded.RemoteId
	`, path, fileName, remoteID)
	if err != nil {
		return fmt.Errorf("failed to upsert local file %s/%s: %w", path, fileName, err)
	}
	return nil
}

// MaxDuplicateNo returns the highest duplicate ordinal assigned in the
// (path, origFileName) collision group. ok is false when the group is empty.
func (db *DB) MaxDuplicateNo(ctx context.Context, path, origFileName string) (int, bool, error) {
	var max sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(DuplicateNo) FROM SyncFiles WHERE Path = ? AND OrigFileName = ?`,
		path, origFileName).Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query duplicate group: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

// ScanCursors returns the last successful scan dates for the Drive and
// Picasa scanners. Zero times mean no scan has completed yet.
func (db *DB) ScanCursors(ctx context.Context) (drive, picasa time.Time, err error) {
	var d, p sql.NullString
	err = db.conn.QueryRowContext(ctx,
		`SELECT LastIndexDrive, LastIndexPicasa FROM Globals WHERE Id = 1`).Scan(&d, &p)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read scan cursors: %w", err)
	}
	return nullStringToTime(d), nullStringToTime(p), nil
}

// SetScanCursors updates the scan cursors. This is a partial update: a zero
// time leaves the corresponding cursor untouched.
func (db *DB) SetScanCursors(ctx context.Context, drive, picasa time.Time) error {
	if !drive.IsZero() {
		_, err := db.conn.ExecContext(ctx,
			`UPDATE Globals SET LastIndexDrive = ? WHERE Id = 1`,
			drive.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to set drive cursor: %w", err)
		}
	}
	if !picasa.IsZero() {
		_, err := db.conn.ExecContext(ctx,
			`UPDATE Globals SET LastIndexPicasa = ? WHERE Id = 1`,
			picasa.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to set picasa cursor: %w", err)
		}
	}
	return nil
}

// RowID returns the SyncFiles row id for a remote id, for use as the file
// side of an album membership. ok is false when the id is not indexed.
func (db *DB) RowID(ctx context.Context, remoteID string) (int64, bool, error) {
	var rowID int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT Id FROM SyncFiles WHERE RemoteId = ?`, remoteID).Scan(&rowID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query row id: %w", err)
	}
	return rowID, true, nil
}

// CountRecords returns the total number of indexed items.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM SyncFiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Flush durably commits pending writes by checkpointing the WAL.
// Must be called before process exit.
func (db *DB) Flush() error {
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

// Close releases the database connection after a final checkpoint. The
// connection is released even if the checkpoint fails; the checkpoint
// error is returned so the caller can surface it.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	_, checkpointErr := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	db.conn = nil
	if checkpointErr != nil {
		return fmt.Errorf("failed to checkpoint WAL on close: %w", checkpointErr)
	}
	return nil
}

const selectRecord = `
	SELECT RemoteId, Url, Path, FileName, OrigFileName, DuplicateNo,
	       MediaType, FileSize, Checksum, Description,
	       ModifyDate, CreateDate, SyncDate, SymLink
	FROM SyncFiles`

const insertRecord = `
	INSERT INTO SyncFiles (
		RemoteId, Url, Path, FileName, OrigFileName, DuplicateNo,
		MediaType, FileSize, Checksum, Description,
		ModifyDate, CreateDate, SyncDate, SymLink
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// recordArgs flattens a record into the insertRecord parameter order.
func recordArgs(rec *SyncRecord) []interface{} {
	symlink := 0
	if rec.SymLink {
		symlink = 1
	}
	return []interface{}{
		rec.RemoteID,
		rec.URL,
		rec.Path,
		rec.FileName,
		rec.OrigFileName,
		rec.DuplicateNo,
		int(rec.MediaType),
		rec.FileSize,
		rec.Checksum,
		rec.Description,
		timeToNullString(rec.ModifyDate),
		timeToNullString(rec.CreateDate),
		timeToNullString(rec.SyncDate),
		symlink,
	}
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one SyncFiles row. A sql.ErrNoRows result maps to
// (nil, nil) so point lookups can distinguish absence from failure.
func scanRecord(row rowScanner) (*SyncRecord, error) {
	var rec SyncRecord
	var mediaType, symlink int
	var fileSize sql.NullInt64
	var url, checksum, description sql.NullString
	var modify, create, syncDate sql.NullString

	err := row.Scan(
		&rec.RemoteID,
		&url,
		&rec.Path,
		&rec.FileName,
		&rec.OrigFileName,
		&rec.DuplicateNo,
		&mediaType,
		&fileSize,
		&checksum,
		&description,
		&modify,
		&create,
		&syncDate,
		&symlink,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.URL = url.String
	rec.Checksum = checksum.String
	rec.Description = description.String
	rec.MediaType = MediaType(mediaType)
	rec.FileSize = fileSize.Int64
	rec.ModifyDate = nullStringToTime(modify)
	rec.CreateDate = nullStringToTime(create)
	rec.SyncDate = nullStringToTime(syncDate)
	rec.SymLink = symlink != 0
	return &rec, nil
}

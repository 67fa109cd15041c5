package index

import (
	"database/sql"
	"time"
)

// MediaType identifies which remote scanner produced a record.
type MediaType int

const (
	// MediaTypeDrive is media indexed from the Drive folder hierarchy.
	MediaTypeDrive MediaType = 0
	// MediaTypePicasa is media indexed from the albums (Picasa) API.
	MediaTypePicasa MediaType = 1
)

// String returns a human-readable representation of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaTypeDrive:
		return "drive"
	case MediaTypePicasa:
		return "picasa"
	default:
		return "unknown"
	}
}

// SyncRecord is one row of the SyncFiles table: a single remote media item
// that has been materialized (or indexed) locally.
//
// Rows are insert-only. Once written, a record is never updated or deleted
// by the sync engine, which is what makes duplicate numbering stable across
// runs: the same remote id always resolves to the same local name.
type SyncRecord struct {
	// RemoteID is the globally unique id of the item in the remote store.
	RemoteID string

	// URL is the remote content link, kept for diagnostics.
	URL string

	// Path is the target directory, relative to the sync root.
	Path string

	// FileName is the on-disk name, with the duplicate ordinal embedded.
	FileName string

	// OrigFileName is the remote name before disambiguation.
	OrigFileName string

	// DuplicateNo disambiguates items that collide on (Path, OrigFileName).
	// Assigned 0, 1, 2, ... in first-seen order.
	DuplicateNo int

	MediaType MediaType
	FileSize  int64
	Checksum  string

	Description string

	ModifyDate time.Time
	CreateDate time.Time
	SyncDate   time.Time

	// SymLink marks records materialized as symlinks rather than copies.
	SymLink bool
}

// Album is one row of the Albums table. Albums are mutable and upserted
// whenever the orchestrator learns about them.
type Album struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	SyncDate  time.Time
}

// AlbumEntry is one row of the album/file join, used for album listings
// and manifest export.
type AlbumEntry struct {
	Path      string
	FileName  string
	AlbumName string
	EndDate   time.Time
}

// FolderChild identifies a direct child of a folder in the DriveFolders
// cache, returned by UpdateFolderPath so callers can cascade path updates
// one level at a time.
type FolderChild struct {
	ID   string
	Name string
}

// timeToNullString converts a timestamp to a nullable string for SQL.
// The zero time is stored as NULL.
func timeToNullString(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable SQL string back to a timestamp.
// NULL and unparseable values come back as the zero time.
func nullStringToTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SearchOptions configures a streaming catalog search.
type SearchOptions struct {
	// RemoteID is a wildcard pattern matched against RemoteId.
	// "*" matches any run of characters; empty means match-all.
	RemoteID string

	// MediaType is a wildcard pattern matched against the media type code.
	// Empty means match-all.
	MediaType string

	// StartDate includes a record if its ModifyDate OR CreateDate is on or
	// after it. Both are checked because recently-uploaded media keeps its
	// original modify date (from the exif) but gets a fresh create date;
	// checking create date keeps such items visible to incremental scans.
	StartDate time.Time

	// EndDate includes a record if its ModifyDate is on or before it.
	EndDate time.Time
}

// likePattern translates a "*" wildcard pattern into a SQL LIKE pattern,
// defaulting to match-all.
func likePattern(pattern string) string {
	if pattern == "" || pattern == "*" {
		return "%"
	}
	return strings.ReplaceAll(pattern, "*", "%")
}

// Search streams records matching the given filters. Results are scanned
// row by row off the wire rather than loaded as one slice, so arbitrarily
// large catalogs can be walked in constant memory. Order is unspecified but
// stable for a fixed catalog state.
//
// The caller must Close() the cursor:
//
//	cur, err := db.Search(ctx, index.SearchOptions{})
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//	for cur.Next() {
//	    rec := cur.Record()
//	    ...
//	}
//	if err := cur.Err(); err != nil {
//	    return err
//	}
func (db *DB) Search(ctx context.Context, opts SearchOptions) (*Cursor, error) {
	conditions := []string{"RemoteId LIKE ?", "CAST(MediaType AS TEXT) LIKE ?"}
	args := []interface{}{likePattern(opts.RemoteID), likePattern(opts.MediaType)}

	if !opts.StartDate.IsZero() {
		start := opts.StartDate.UTC().Format(time.RFC3339)
		conditions = append(conditions, "(ModifyDate >= ? OR CreateDate >= ?)")
		args = append(args, start, start)
	}
	if !opts.EndDate.IsZero() {
		conditions = append(conditions, "ModifyDate <= ?")
		args = append(args, opts.EndDate.UTC().Format(time.RFC3339))
	}

	query := selectRecord + " WHERE " + strings.Join(conditions, " AND ")

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// Cursor is a streaming iterator over search results, in the manner of
// sql.Rows: call Next until it returns false, then check Err.
type Cursor struct {
	rows *sql.Rows
	rec  *SyncRecord
	err  error
}

// Next advances to the next record. It returns false when the results are
// exhausted or an error occurred; distinguish the two with Err.
func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		if c.err == nil {
			c.err = c.rows.Err()
		}
		return false
	}
	c.rec, c.err = scanRecord(c.rows)
	return c.err == nil
}

// Record returns the record at the current position.
func (c *Cursor) Record() *SyncRecord {
	return c.rec
}

// Err returns the first error encountered during iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the underlying result set.
func (c *Cursor) Close() error {
	return c.rows.Close()
}

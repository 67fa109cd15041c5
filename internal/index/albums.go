package index

import (
	"context"
	"database/sql"
	"fmt"
)

// GetAlbum retrieves an album by id. Returns (nil, nil) when unknown.
func (db *DB) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT AlbumName, StartDate, EndDate, SyncDate FROM Albums WHERE AlbumId = ?`,
		albumID)

	album := Album{ID: albumID}
	var name, start, end, syncDate sql.NullString
	err := row.Scan(&name, &start, &end, &syncDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query album %s: %w", albumID, err)
	}

	album.Name = name.String
	album.StartDate = nullStringToTime(start)
	album.EndDate = nullStringToTime(end)
	album.SyncDate = nullStringToTime(syncDate)
	return &album, nil
}

// PutAlbum inserts or replaces an album. Albums are mutable: the orchestrator
// upserts whenever it learns about one.
func (db *DB) PutAlbum(ctx context.Context, album *Album) error {
	query := `
	INSERT INTO Albums (AlbumId, AlbumName, StartDate, EndDate, SyncDate)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(AlbumId) DO UPDATE SET
		AlbumName = excluded.AlbumName,
		StartDate = excluded.StartDate,
		EndDate = excluded.EndDate,
		SyncDate = excluded.SyncDate
	`
	_, err := db.conn.ExecContext(ctx, query,
		album.ID,
		album.Name,
		timeToNullString(album.StartDate),
		timeToNullString(album.EndDate),
		timeToNullString(album.SyncDate),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert album %s: %w", album.ID, err)
	}
	return nil
}

// PutAlbumFile records membership of a file row in an album. Idempotent.
func (db *DB) PutAlbumFile(ctx context.Context, albumID string, fileRowID int64) error {
	query := `
	INSERT INTO AlbumFiles (AlbumRec, DriveRec)
	VALUES (?, ?)
	ON CONFLICT(AlbumRec, DriveRec) DO NOTHING
	`
	if _, err := db.conn.ExecContext(ctx, query, albumID, fileRowID); err != nil {
		return fmt.Errorf("failed to upsert album membership %s: %w", albumID, err)
	}
	return nil
}

// ListAlbums returns all albums ordered by name.
func (db *DB) ListAlbums(ctx context.Context) ([]*Album, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT AlbumId, AlbumName, StartDate, EndDate, SyncDate FROM Albums ORDER BY AlbumName`)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		var album Album
		var name, start, end, syncDate sql.NullString
		if err := rows.Scan(&album.ID, &name, &start, &end, &syncDate); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		album.Name = name.String
		album.StartDate = nullStringToTime(start)
		album.EndDate = nullStringToTime(end)
		album.SyncDate = nullStringToTime(syncDate)
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return albums, nil
}

// AlbumFiles lists the local files belonging to albums matching the given
// wildcard album id pattern (empty or "*" for all).
func (db *DB) AlbumFiles(ctx context.Context, albumID string) ([]AlbumEntry, error) {
	query := `
	SELECT SyncFiles.Path, SyncFiles.FileName, Albums.AlbumName, Albums.EndDate
	FROM AlbumFiles
	INNER JOIN SyncFiles ON AlbumFiles.DriveRec = SyncFiles.Id
	INNER JOIN Albums ON AlbumFiles.AlbumRec = Albums.AlbumId
	WHERE Albums.AlbumId LIKE ?
	`
	rows, err := db.conn.QueryContext(ctx, query, likePattern(albumID))
	if err != nil {
		return nil, fmt.Errorf("failed to list album files: %w", err)
	}
	defer rows.Close()

	var entries []AlbumEntry
	for rows.Next() {
		var entry AlbumEntry
		var albumName, endDate sql.NullString
		if err := rows.Scan(&entry.Path, &entry.FileName, &albumName, &endDate); err != nil {
			return nil, fmt.Errorf("failed to scan album file: %w", err)
		}
		entry.AlbumName = albumName.String
		entry.EndDate = nullStringToTime(endDate)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating album files: %w", err)
	}
	return entries, nil
}

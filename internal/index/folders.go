package index

import (
	"context"
	"database/sql"
	"fmt"
)

// FolderPath returns the cached local path for a remote folder id.
// ok is false when the folder has not been seen yet.
func (db *DB) FolderPath(ctx context.Context, folderID string) (string, bool, error) {
	var path sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT Path FROM DriveFolders WHERE FolderId = ?`, folderID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query folder path: %w", err)
	}
	return path.String, path.Valid, nil
}

// PutFolder records (or refreshes) a remote folder in the path cache.
func (db *DB) PutFolder(ctx context.Context, folderID, parentID, name, path string) error {
	query := `
	INSERT INTO DriveFolders (FolderId, ParentId, FolderName, Path)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(FolderId) DO UPDATE SET
		ParentId = excluded.ParentId,
		FolderName = excluded.FolderName,
		Path = excluded.Path
	`
	if _, err := db.conn.ExecContext(ctx, query, folderID, parentID, name, path); err != nil {
		return fmt.Errorf("failed to upsert folder %s: %w", folderID, err)
	}
	return nil
}

// UpdateFolderPath writes a folder's new cached path and returns its direct
// children so the caller can cascade one level at a time, recomputing each
// child path from the parent's. Driving the cascade from the caller bounds
// stack depth on deep trees.
func (db *DB) UpdateFolderPath(ctx context.Context, path, folderID string) ([]FolderChild, error) {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE DriveFolders SET Path = ? WHERE FolderId = ?`, path, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update path of folder %s: %w", folderID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT FolderId, FolderName FROM DriveFolders WHERE ParentId = ?`, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", folderID, err)
	}
	defer rows.Close()

	var children []FolderChild
	for rows.Next() {
		var child FolderChild
		var name sql.NullString
		if err := rows.Scan(&child.ID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan folder child: %w", err)
		}
		child.Name = name.String
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder children: %w", err)
	}
	return children, nil
}

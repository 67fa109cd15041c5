package catalog

import (
	"context"
	"time"
)

// AlbumInfo is album metadata reported by the remote store.
type AlbumInfo struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// AlbumLister is an optional extension of Catalog for remote stores that
// expose album groupings. The sync engine type-asserts for it and syncs
// album metadata and memberships when available.
type AlbumLister interface {
	// ListAlbums streams albums with the remote ids of their members.
	ListAlbums(ctx context.Context, fn func(album AlbumInfo, memberIDs []string) error) error
}

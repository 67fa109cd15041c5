// Package catalog defines the interfaces through which the sync engine
// talks to the remote media store and the local filesystem walker.
//
// The engine never touches a concrete API client: it is handed a Catalog
// capability at construction. Production wires in the Google Drive
// implementation (internal/drive); tests wire in fakes.
package catalog

import (
	"context"
	"io"
	"time"
)

// RemoteItem is one media object in the remote store.
type RemoteItem struct {
	// ID is the stable remote identifier; globally unique.
	ID string

	// Name is the remote filename before any local disambiguation.
	Name string

	MimeType string

	// Parents are the ids of the folders containing this item.
	Parents []string

	// URL is the remote content link.
	URL string

	Description string

	// Checksum is an opaque content fingerprint reported by the remote.
	Checksum string

	FileSize int64

	ModifiedDate time.Time
	CreatedDate  time.Time
}

// IsVideo reports whether the item is video media.
func (it RemoteItem) IsVideo() bool {
	return len(it.MimeType) >= 6 && it.MimeType[:6] == "video/"
}

// DateWindow bounds a listing by modification date. Zero times mean
// unbounded on that side.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// UploadMeta carries the metadata for a newly created remote item.
type UploadMeta struct {
	Name     string
	MimeType string

	// FolderID optionally places the item in a specific remote folder.
	// Empty means the store's default location.
	FolderID string
}

// ProgressFunc is invoked after each transferred chunk.
type ProgressFunc func(transferred, total int64)

// ItemFunc receives one remote item per call during a listing. Returning an
// error stops the listing and propagates out of ListItems.
type ItemFunc func(item RemoteItem) error

// Catalog is the remote media store as seen by the sync engine.
//
// All calls block; the engine is single-threaded by design.
type Catalog interface {
	// RootFolder locates the top-level media container.
	// Returns ErrNoRemoteRoot if it cannot be found.
	RootFolder(ctx context.Context) (folderID string, err error)

	// ResolveFolder finds a folder by name under the given parent. Names
	// may contain "/" separators; segments are resolved in order.
	// Returns ErrFolderNotFound when any segment is missing.
	ResolveFolder(ctx context.Context, name, parentID string) (folderID string, err error)

	// Folder returns the name and parent id of a folder.
	Folder(ctx context.Context, folderID string) (name, parentID string, err error)

	// ListItems streams the media items under a folder, page by page,
	// bounded by the date window.
	ListItems(ctx context.Context, folderID string, window DateWindow, fn ItemFunc) error

	// ItemByName finds an item by exact name under the remote root.
	// Returns (nil, nil) when no item matches.
	ItemByName(ctx context.Context, name string) (*RemoteItem, error)

	// Download streams the content of an item into sink, reporting
	// progress per chunk. progress may be nil.
	Download(ctx context.Context, id string, sink io.Writer, progress ProgressFunc) error

	// Upload creates a new remote item from a local file.
	Upload(ctx context.Context, localPath string, meta UploadMeta, progress ProgressFunc) (*RemoteItem, error)

	// Update replaces the content of an existing remote item.
	Update(ctx context.Context, id, localPath string, progress ProgressFunc) error
}

// LocalFile is one local media file discovered by the walker.
type LocalFile struct {
	Path     string
	MimeType string
}

// Walker enumerates local media files for the upload path.
type Walker interface {
	// EnumerateImages walks rootPath and returns the image files found,
	// in walk order. Video files are included when includeVideo is set.
	EnumerateImages(rootPath string, includeVideo bool) ([]LocalFile, error)
}

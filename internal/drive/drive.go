// Package drive implements the remote catalog against the Google Drive v3
// API. Media synced from Google Photos lives under a special "Google Photos"
// folder at the Drive root; everything in this package is addressed relative
// to that folder.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
)

const (
	// photosFolderName is the well-known Drive folder Google Photos
	// mirrors media into.
	photosFolderName = "Google Photos"

	folderMimeType = "application/vnd.google-apps.folder"

	pageSize = 100

	// listFields keeps responses to the attributes the index stores.
	listFields = "nextPageToken, files(id, name, mimeType, parents, size, md5Checksum, description, modifiedTime, createdTime, webContentLink)"
)

// Catalog is a remote catalog backed by a Drive service. It satisfies
// catalog.Catalog.
type Catalog struct {
	svc *drive.Service
}

// NewCatalog wraps an authenticated Drive service. See NewService for
// building one from stored credentials.
func NewCatalog(svc *drive.Service) *Catalog {
	return &Catalog{svc: svc}
}

var _ catalog.Catalog = (*Catalog)(nil)

// escapeQuery escapes a literal for interpolation into a Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// RootFolder locates the "Google Photos" folder at the Drive root.
func (c *Catalog) RootFolder(ctx context.Context) (string, error) {
	query := fmt.Sprintf("name = '%s' and 'root' in parents and trashed = false",
		escapeQuery(photosFolderName))

	list, err := c.svc.Files.List().Context(ctx).Q(query).PageSize(1).
		Fields("files(id)").Do()
	if err != nil {
		return "", fmt.Errorf("failed to query for the %s folder: %w", photosFolderName, err)
	}
	if len(list.Files) == 0 {
		return "", catalog.ErrNoRemoteRoot
	}
	return list.Files[0].Id, nil
}

// ResolveFolder walks a "/"-separated folder path down from parentID and
// returns the id of the final segment.
func (c *Catalog) ResolveFolder(ctx context.Context, name, parentID string) (string, error) {
	current := parentID
	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			continue
		}
		query := fmt.Sprintf(
			"name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQuery(segment), escapeQuery(current), folderMimeType)

		list, err := c.svc.Files.List().Context(ctx).Q(query).PageSize(1).
			Fields("files(id)").Do()
		if err != nil {
			return "", fmt.Errorf("failed to resolve folder %q: %w", segment, err)
		}
		if len(list.Files) == 0 {
			return "", fmt.Errorf("%w: %s", catalog.ErrFolderNotFound, segment)
		}
		current = list.Files[0].Id
	}
	return current, nil
}

// Folder fetches a folder's name and parent id.
func (c *Catalog) Folder(ctx context.Context, folderID string) (string, string, error) {
	f, err := c.svc.Files.Get(folderID).Context(ctx).
		Fields("name, parents").Do()
	if err != nil {
		if isNotFound(err) {
			return "", "", fmt.Errorf("%w: %s", catalog.ErrFolderNotFound, folderID)
		}
		return "", "", fmt.Errorf("failed to fetch folder %s: %w", folderID, err)
	}
	parentID := ""
	if len(f.Parents) > 0 {
		parentID = f.Parents[0]
	}
	return f.Name, parentID, nil
}

// listQuery builds the media listing query for a folder and date window.
func listQuery(folderID string, window catalog.DateWindow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' in parents and trashed = false and mimeType != '%s'",
		escapeQuery(folderID), folderMimeType)
	if !window.Start.IsZero() {
		fmt.Fprintf(&b, " and modifiedTime >= '%s'", window.Start.UTC().Format(time.RFC3339))
	}
	if !window.End.IsZero() {
		fmt.Fprintf(&b, " and modifiedTime <= '%s'", window.End.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// ListItems streams every media item under folderID within the window,
// ordered by name, invoking fn once per item. Listing stops at the first
// error returned by fn.
func (c *Catalog) ListItems(ctx context.Context, folderID string, window catalog.DateWindow, fn catalog.ItemFunc) error {
	call := c.svc.Files.List().Context(ctx).
		Q(listQuery(folderID, window)).
		OrderBy("name").
		PageSize(pageSize).
		Fields(googleapi.Field(listFields))

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			if err := fn(toRemoteItem(f)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	return nil
}

// ItemByName finds a media item by exact name under the Google Photos root.
// It returns (nil, nil) when no item matches.
func (c *Catalog) ItemByName(ctx context.Context, name string) (*catalog.RemoteItem, error) {
	rootID, err := c.RootFolder(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), escapeQuery(rootID))

	list, err := c.svc.Files.List().Context(ctx).Q(query).PageSize(1).
		Fields(googleapi.Field(listFields)).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	item := toRemoteItem(list.Files[0])
	return &item, nil
}

// Download streams the item's content into sink.
func (c *Catalog) Download(ctx context.Context, remoteID string, sink io.Writer, progress catalog.ProgressFunc) error {
	resp, err := c.svc.Files.Get(remoteID).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", catalog.ErrItemNotFound, remoteID)
		}
		return fmt.Errorf("failed to start download of %s: %w", remoteID, err)
	}
	defer resp.Body.Close()

	w := sink
	if progress != nil {
		w = &progressWriter{sink: sink, total: resp.ContentLength, fn: progress}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("transfer of %s interrupted: %w", remoteID, err)
	}
	return nil
}

// Upload creates a new remote item from a local file.
func (c *Catalog) Upload(ctx context.Context, localPath string, meta catalog.UploadMeta, progress catalog.ProgressFunc) (*catalog.RemoteItem, error) {
	src, err := openLocal(localPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	file := &drive.File{Name: meta.Name, MimeType: meta.MimeType}
	if meta.FolderID != "" {
		file.Parents = []string{meta.FolderID}
	}

	call := c.svc.Files.Create(file).Context(ctx).
		Media(src).
		Fields(googleapi.Field("id, name, mimeType, size, md5Checksum, modifiedTime, createdTime"))
	if progress != nil {
		call = call.ProgressUpdater(googleapi.ProgressUpdater(progress))
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", meta.Name, err)
	}
	item := toRemoteItem(created)
	return &item, nil
}

// Update replaces the content of an existing remote item in place, keeping
// its id.
func (c *Catalog) Update(ctx context.Context, remoteID, localPath string, progress catalog.ProgressFunc) error {
	src, err := openLocal(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	call := c.svc.Files.Update(remoteID, &drive.File{}).Context(ctx).Media(src)
	if progress != nil {
		call = call.ProgressUpdater(googleapi.ProgressUpdater(progress))
	}
	if _, err := call.Do(); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", catalog.ErrItemNotFound, remoteID)
		}
		return fmt.Errorf("failed to update %s: %w", remoteID, err)
	}
	return nil
}

// toRemoteItem converts a Drive file into the catalog's neutral item shape.
// Timestamps Drive cannot parse come back zero rather than failing the run.
func toRemoteItem(f *drive.File) catalog.RemoteItem {
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)

	return catalog.RemoteItem{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Parents:      f.Parents,
		URL:          f.WebContentLink,
		Description:  f.Description,
		Checksum:     f.Md5Checksum,
		FileSize:     f.Size,
		ModifiedDate: modified,
		CreatedDate:  created,
	}
}

// progressWriter reports cumulative bytes written through to fn.
type progressWriter struct {
	sink    io.Writer
	total   int64
	written int64
	fn      catalog.ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.sink.Write(b)
	p.written += int64(n)
	p.fn(p.written, p.total)
	return n, err
}

func openLocal(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}

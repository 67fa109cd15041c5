package syncer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
)

// fakeCatalog is an in-memory remote store for tests. Folders form a tree
// rooted at "root"; items carry literal content returned by Download.
type fakeCatalog struct {
	rootID  string
	folders map[string]fakeFolder // id -> folder
	items   []catalog.RemoteItem
	content map[string][]byte // item id -> bytes
	albums  []fakeAlbum

	// failDownloads[id] makes Download fail that many times before
	// succeeding; -1 fails forever.
	failDownloads map[string]int
	// partialOnFail writes some bytes before each failed attempt,
	// simulating a connection dropped mid-transfer.
	partialOnFail bool

	uploads []string          // local paths passed to Upload
	updates map[string]string // remote id -> local path passed to Update
}

type fakeFolder struct {
	name     string
	parentID string
}

type fakeAlbum struct {
	info    catalog.AlbumInfo
	members []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		rootID:        "root",
		folders:       map[string]fakeFolder{"root": {name: "", parentID: ""}},
		content:       make(map[string][]byte),
		failDownloads: make(map[string]int),
		updates:       make(map[string]string),
	}
}

// addItem registers an item under folderID with the given content.
func (f *fakeCatalog) addItem(id, name, folderID string, content []byte) {
	f.items = append(f.items, catalog.RemoteItem{
		ID:           id,
		Name:         name,
		MimeType:     "image/jpeg",
		Parents:      []string{folderID},
		FileSize:     int64(len(content)),
		Checksum:     fmt.Sprintf("sum-%s", id),
		ModifiedDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedDate:  time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	f.content[id] = content
}

func (f *fakeCatalog) addFolder(id, name, parentID string) {
	f.folders[id] = fakeFolder{name: name, parentID: parentID}
}

func (f *fakeCatalog) RootFolder(context.Context) (string, error) {
	if f.rootID == "" {
		return "", catalog.ErrNoRemoteRoot
	}
	return f.rootID, nil
}

func (f *fakeCatalog) ResolveFolder(_ context.Context, name, parentID string) (string, error) {
	for id, folder := range f.folders {
		if folder.name == name && folder.parentID == parentID {
			return id, nil
		}
	}
	return "", catalog.ErrFolderNotFound
}

func (f *fakeCatalog) Folder(_ context.Context, folderID string) (string, string, error) {
	folder, ok := f.folders[folderID]
	if !ok {
		return "", "", catalog.ErrFolderNotFound
	}
	return folder.name, folder.parentID, nil
}

func (f *fakeCatalog) ListItems(_ context.Context, folderID string, window catalog.DateWindow, fn catalog.ItemFunc) error {
	for _, item := range f.items {
		if !window.Start.IsZero() && item.ModifiedDate.Before(window.Start) &&
			item.CreatedDate.Before(window.Start) {
			continue
		}
		if !window.End.IsZero() && item.ModifiedDate.After(window.End) {
			continue
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCatalog) ItemByName(_ context.Context, name string) (*catalog.RemoteItem, error) {
	for i := range f.items {
		if f.items[i].Name == name {
			return &f.items[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) Download(_ context.Context, id string, sink io.Writer, progress catalog.ProgressFunc) error {
	if remaining, ok := f.failDownloads[id]; ok && remaining != 0 {
		if remaining > 0 {
			f.failDownloads[id] = remaining - 1
		}
		if f.partialOnFail {
			_, _ = sink.Write([]byte("partial"))
		}
		return fmt.Errorf("simulated transfer failure for %s", id)
	}

	content := f.content[id]
	if _, err := sink.Write(content); err != nil {
		return err
	}
	if progress != nil {
		progress(int64(len(content)), int64(len(content)))
	}
	return nil
}

func (f *fakeCatalog) Upload(_ context.Context, localPath string, meta catalog.UploadMeta, _ catalog.ProgressFunc) (*catalog.RemoteItem, error) {
	f.uploads = append(f.uploads, localPath)
	return &catalog.RemoteItem{ID: "new-" + meta.Name, Name: meta.Name}, nil
}

func (f *fakeCatalog) Update(_ context.Context, id, localPath string, _ catalog.ProgressFunc) error {
	f.updates[id] = localPath
	return nil
}

func (f *fakeCatalog) ListAlbums(_ context.Context, fn func(catalog.AlbumInfo, []string) error) error {
	for _, album := range f.albums {
		if err := fn(album.info, album.members); err != nil {
			return err
		}
	}
	return nil
}

var _ catalog.Catalog = (*fakeCatalog)(nil)
var _ catalog.AlbumLister = (*fakeCatalog)(nil)

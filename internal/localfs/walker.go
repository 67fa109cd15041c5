// Package localfs enumerates local media files for the upload path.
package localfs

import (
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
)

// Walker discovers media files on the local filesystem by extension-derived
// mime type. It satisfies catalog.Walker.
type Walker struct{}

// New creates a Walker.
func New() *Walker {
	return &Walker{}
}

// EnumerateImages walks rootPath and returns all files whose mime type is
// image/* (plus video/* when includeVideo is set), in walk order. Files with
// unknown extensions are skipped. Hidden directories are not descended into.
func (w *Walker) EnumerateImages(rootPath string, includeVideo bool) ([]catalog.LocalFile, error) {
	var files []catalog.LocalFile

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			return nil
		}
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}

		if strings.HasPrefix(mimeType, "image/") ||
			(includeVideo && strings.HasPrefix(mimeType, "video/")) {
			files = append(files, catalog.LocalFile{Path: path, MimeType: mimeType})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootPath, err)
	}
	return files, nil
}

package syncer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
)

// Upload mirrors local media back to the remote store.
//
// The direction is asymmetric to Run: each local image is looked up by name;
// a hit updates the content of the existing remote item (preserving its
// remote id), a miss creates a new one. Per-item failures are logged and
// counted, never fatal to the pass.
func (s *Syncer) Upload(ctx context.Context) (RunStats, error) {
	var stats RunStats

	root := s.opts.RootFolder
	if s.opts.StartFolder != "" {
		root = filepath.Join(root, s.opts.StartFolder)
	}

	files, err := s.walker.EnumerateImages(root, s.opts.IncludeVideo)
	if err != nil {
		return stats, fmt.Errorf("failed to enumerate local media: %w", err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := s.UploadFile(ctx, file.Path, file.MimeType); err != nil {
			stats.Failed++
			continue
		}
		stats.Synced++
	}

	s.logger.Printf("Upload complete: uploaded=%d failed=%d", stats.Synced, stats.Failed)
	s.events.RunComplete(stats)
	return stats, nil
}

// UploadFile mirrors a single local file to the remote store: update in
// place when an item of the same name already exists, create otherwise.
func (s *Syncer) UploadFile(ctx context.Context, localPath, mimeType string) error {
	name := filepath.Base(localPath)

	remote, err := s.remote.ItemByName(ctx, name)
	if err != nil {
		s.logger.Printf("WARNING: lookup failed for %s: %v", name, err)
		return err
	}

	if remote != nil {
		err = s.remote.Update(ctx, remote.ID, localPath, s.progress)
	} else {
		meta := catalog.UploadMeta{Name: name, MimeType: mimeType}
		_, err = s.remote.Upload(ctx, localPath, meta, s.progress)
	}
	if err != nil {
		s.logger.Printf("WARNING: upload failed for %s: %v", name, err)
		s.events.ItemFailed("", name, err)
		return err
	}
	return nil
}

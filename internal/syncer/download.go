package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
)

// tempFileName is the scratch name downloads stream into before the final
// rename. A single sync process owns the target tree, so one name per
// directory is enough.
const tempFileName = ".gphotos.tmp"

// download transfers one item into place crash-safely: bytes stream into a
// temporary file in the target directory, and only a fully successful
// transfer is renamed to the final name. A kill at any point leaves either
// no final file or a complete one; the index row is written by the caller
// strictly after the rename, so the index can never claim a file that is
// not on disk.
func (s *Syncer) download(ctx context.Context, item catalog.RemoteItem, relPath, fileName string) error {
	dir := filepath.Join(s.opts.RootFolder, relPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory %s: %w", dir, err)
	}

	tempPath := filepath.Join(dir, tempFileName)
	targetPath := filepath.Join(dir, fileName)

	var lastErr error
	for attempt := 0; s.retry.Allow(ctx, attempt); attempt++ {
		if attempt > 0 {
			s.logger.Printf("RETRYING %s (attempt %d): %v", item.Name, attempt+1, lastErr)
		}
		lastErr = s.transferOnce(ctx, item.ID, tempPath)
		if lastErr == nil {
			if err := os.Rename(tempPath, targetPath); err != nil {
				return fmt.Errorf("failed to finalize %s: %w", targetPath, err)
			}
			return nil
		}
		// Each retry starts from a clean slate.
		_ = os.Remove(tempPath)
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return fmt.Errorf("%w: %s: %v", ErrTransferFailed, item.Name, lastErr)
}

// transferOnce performs a single transfer attempt into tempPath.
func (s *Syncer) transferOnce(ctx context.Context, remoteID, tempPath string) error {
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := s.remote.Download(ctx, remoteID, f, s.progress); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

// progress forwards transfer progress to the logger at a coarse level.
// Chunk-level reporting is the catalog implementation's concern.
func (s *Syncer) progress(transferred, total int64) {
	if total > 0 && transferred >= total {
		s.logger.Printf("transferred %d bytes", total)
	}
}

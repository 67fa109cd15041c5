package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
	"github.com/f1sherman/gphotos-sync/internal/dedupe"
	"github.com/f1sherman/gphotos-sync/internal/index"
)

// Options configures a reconciliation run.
type Options struct {
	// RootFolder is the local directory the remote tree is mirrored into.
	RootFolder string

	// StartFolder optionally restricts the run to a remote subfolder,
	// named relative to the remote root ("/"-separated).
	StartFolder string

	// StartDate and EndDate bound the remote listing. A zero StartDate
	// falls back to the last successful scan cursor, making repeat runs
	// incremental by default.
	StartDate time.Time
	EndDate   time.Time

	// IncludeVideo also syncs video media.
	IncludeVideo bool

	// IndexOnly records items in the catalog without transferring bytes.
	IndexOnly bool
}

// Syncer reconciles the remote item stream against the durable index,
// driving crash-safe downloads and writing index records.
//
// Processing is strictly sequential: one item is fully handled (existence
// check, transfer, index write) before the next begins. A single sync
// process owns the index and the target tree.
type Syncer struct {
	db       *index.DB
	remote   catalog.Catalog
	walker   catalog.Walker
	resolver *dedupe.Resolver
	retry    RetryPolicy
	events   Events
	logger   *log.Logger
	opts     Options
}

// New creates a Syncer. remote and db are required; walker is only needed
// for Upload. A nil retry policy uses DefaultRetry, a nil logger writes to
// stderr, nil events are discarded.
func New(db *index.DB, remote catalog.Catalog, walker catalog.Walker, opts Options,
	retry RetryPolicy, events Events, logger *log.Logger) *Syncer {

	if retry == nil {
		retry = DefaultRetry
	}
	if events == nil {
		events = noopEvents{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Syncer{
		db:       db,
		remote:   remote,
		walker:   walker,
		resolver: dedupe.New(db),
		retry:    retry,
		events:   events,
		logger:   logger,
		opts:     opts,
	}
}

// Run performs one download reconciliation pass.
//
// Fatal conditions (missing remote root, index failure) abort immediately.
// Per-item failures are logged, counted, and skipped over: one bad file
// never blocks the rest of the sync, but any failure holds the drive scan
// cursor back so the next incremental run covers the same window again.
// On a clean run the cursor is advanced and the index is flushed.
func (s *Syncer) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats
	runStart := time.Now()

	rootID, err := s.remote.RootFolder(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to locate remote root: %w", err)
	}

	startID := rootID
	if s.opts.StartFolder != "" {
		startID, err = s.remote.ResolveFolder(ctx, s.opts.StartFolder, rootID)
		if err != nil {
			return stats, fmt.Errorf("failed to resolve start folder %q: %w", s.opts.StartFolder, err)
		}
	}
	// The start folder is the root of the local mirror.
	if err := s.db.PutFolder(ctx, startID, "", "", ""); err != nil {
		return stats, err
	}

	window := catalog.DateWindow{Start: s.opts.StartDate, End: s.opts.EndDate}
	if window.Start.IsZero() {
		drive, _, err := s.db.ScanCursors(ctx)
		if err != nil {
			return stats, err
		}
		window.Start = drive
	}

	err = s.remote.ListItems(ctx, startID, window, func(item catalog.RemoteItem) error {
		if item.IsVideo() && !s.opts.IncludeVideo {
			return nil
		}
		if err := s.syncItem(ctx, item, &stats); err != nil {
			s.logger.Printf("WARNING: failed to sync %s (%s): %v", item.Name, item.ID, err)
			s.events.ItemFailed(item.ID, item.Name, err)
			stats.Failed++
			return nil
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("remote listing failed: %w", err)
	}

	if err := s.syncAlbums(ctx); err != nil {
		return stats, err
	}

	// Advancing the cursor past a failed item's dates would drop it from
	// every later incremental window, so failures keep the cursor where it
	// was and the next run retries the whole window.
	if stats.Failed == 0 {
		if err := s.db.SetScanCursors(ctx, runStart, time.Time{}); err != nil {
			return stats, err
		}
	}
	if err := s.db.Flush(); err != nil {
		return stats, err
	}

	s.logger.Printf("Run complete: synced=%d skipped=%d failed=%d",
		stats.Synced, stats.Skipped, stats.Failed)
	s.events.RunComplete(stats)
	return stats, nil
}

// syncItem handles one remote item end to end. Returned errors are per-item.
func (s *Syncer) syncItem(ctx context.Context, item catalog.RemoteItem, stats *RunStats) error {
	relPath, err := s.targetPath(ctx, item)
	if err != nil {
		return err
	}

	dupNo, err := s.resolver.Resolve(ctx, relPath, item.Name, item.ID)
	if err != nil {
		return err
	}
	fileName := dedupe.FileName(item.Name, dupNo)

	skip, err := s.alreadySynced(ctx, item, relPath, fileName)
	if err != nil {
		return err
	}
	if skip {
		stats.Skipped++
		return nil
	}

	if !s.opts.IndexOnly {
		if err := s.download(ctx, item, relPath, fileName); err != nil {
			return err
		}
	}

	rec := &index.SyncRecord{
		RemoteID:     item.ID,
		URL:          item.URL,
		Path:         relPath,
		FileName:     fileName,
		OrigFileName: item.Name,
		DuplicateNo:  dupNo,
		MediaType:    index.MediaTypeDrive,
		FileSize:     item.FileSize,
		Checksum:     item.Checksum,
		Description:  item.Description,
		ModifyDate:   item.ModifiedDate,
		CreateDate:   item.CreatedDate,
		SyncDate:     time.Now().UTC(),
	}
	if _, err := s.db.PutSynced(ctx, rec); err != nil {
		return err
	}

	stats.Synced++
	s.events.ItemSynced(item.ID, relPath, fileName)
	return nil
}

// alreadySynced runs the two idempotence checks of the resume protocol.
// Either one confirming is enough to skip the item without I/O:
//
//	(a) the index holds a record for this remote id whose filename matches
//	    the computed target, or
//	(b) a file already exists at the computed path and the reverse lookup
//	    maps it back to this same remote id.
//
// A file on disk that maps to a different (or no) remote id is a stray from
// outside the sync; it is renamed aside once so the download can proceed,
// never probed recursively.
func (s *Syncer) alreadySynced(ctx context.Context, item catalog.RemoteItem, relPath, fileName string) (bool, error) {
	rec, err := s.db.GetByRemoteID(ctx, item.ID)
	if err != nil {
		return false, err
	}
	if rec != nil {
		if rec.FileName != fileName || rec.Path != relPath {
			// The record is authoritative; the remote name must have
			// changed since the item was first indexed.
			s.logger.Printf("note: %s indexed as %s/%s, remote now names it %s/%s",
				item.ID, rec.Path, rec.FileName, relPath, fileName)
		}
		return true, nil
	}

	target := filepath.Join(s.opts.RootFolder, relPath, fileName)
	if _, err := os.Stat(target); err == nil {
		remoteID, ok, err := s.db.GetByLocalFile(ctx, relPath, fileName)
		if err != nil {
			return false, err
		}
		if ok && remoteID == item.ID {
			return true, nil
		}
		aside := conflictName(target)
		if err := os.Rename(target, aside); err != nil {
			return false, fmt.Errorf("failed to move stray file aside: %w", err)
		}
		s.logger.Printf("WARNING: moved stray file %s aside as %s", target, filepath.Base(aside))
	}
	return false, nil
}

// conflictName returns an unused rename target for a stray file, so a
// conflict saved by an earlier run is never overwritten.
func conflictName(target string) string {
	name := target + ".conflict"
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.conflict.%d", target, i)
	}
}

// targetPath resolves the item's containing folder to a local directory,
// relative to the root, materializing missing folder-cache entries on the
// way up the remote tree.
func (s *Syncer) targetPath(ctx context.Context, item catalog.RemoteItem) (string, error) {
	if len(item.Parents) == 0 {
		return "", nil
	}
	path, err := s.folderPath(ctx, item.Parents[0], 0)
	if err != nil {
		return "", fmt.Errorf("%w: item %s: %v", ErrPathResolution, item.ID, err)
	}
	return path, nil
}

// maxFolderDepth bounds the walk up the remote folder tree so that a
// malformed parent chain cannot loop forever.
const maxFolderDepth = 64

// folderPath returns the cached path of a folder, fetching and caching
// missing ancestors from the remote catalog.
func (s *Syncer) folderPath(ctx context.Context, folderID string, depth int) (string, error) {
	if depth >= maxFolderDepth {
		return "", fmt.Errorf("folder chain deeper than %d levels", maxFolderDepth)
	}

	path, ok, err := s.db.FolderPath(ctx, folderID)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}

	name, parentID, err := s.remote.Folder(ctx, folderID)
	if err != nil {
		return "", err
	}

	var parentPath string
	if parentID != "" {
		parentPath, err = s.folderPath(ctx, parentID, depth+1)
		if err != nil {
			return "", err
		}
	}
	path = filepath.Join(parentPath, name)
	if err := s.db.PutFolder(ctx, folderID, parentID, name, path); err != nil {
		return "", err
	}
	return path, nil
}

// RefreshFolderPath recomputes the cached paths below a renamed folder,
// cascading one level at a time so deep trees cannot exhaust the stack.
func (s *Syncer) RefreshFolderPath(ctx context.Context, folderID, newPath string) error {
	type level struct {
		id   string
		path string
	}
	queue := []level{{id: folderID, path: newPath}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children, err := s.db.UpdateFolderPath(ctx, cur.path, cur.id)
		if err != nil {
			return err
		}
		for _, child := range children {
			queue = append(queue, level{id: child.ID, path: filepath.Join(cur.path, child.Name)})
		}
	}
	return nil
}

// syncAlbums upserts album metadata and memberships when the remote catalog
// supports album listings.
func (s *Syncer) syncAlbums(ctx context.Context) error {
	lister, ok := s.remote.(catalog.AlbumLister)
	if !ok {
		return nil
	}
	return lister.ListAlbums(ctx, func(info catalog.AlbumInfo, memberIDs []string) error {
		album := &index.Album{
			ID:        info.ID,
			Name:      info.Name,
			StartDate: info.StartDate,
			EndDate:   info.EndDate,
			SyncDate:  time.Now().UTC(),
		}
		if err := s.db.PutAlbum(ctx, album); err != nil {
			return err
		}
		for _, remoteID := range memberIDs {
			rowID, ok, err := s.db.RowID(ctx, remoteID)
			if err != nil {
				return err
			}
			if !ok {
				continue // member not indexed yet; picked up next run
			}
			if err := s.db.PutAlbumFile(ctx, info.ID, rowID); err != nil {
				return err
			}
		}
		return nil
	})
}

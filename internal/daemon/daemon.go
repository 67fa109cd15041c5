// Package daemon provides watch mode: it observes the local mirror tree and
// uploads newly added media files to the remote store as they appear.
//
// The daemon:
//  1. Watches the root folder (and subfolders) for file changes
//  2. Debounces rapid events so half-written files are not uploaded
//  3. Uploads settled media files through the syncer
//  4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Uploader mirrors a single local file to the remote store.
type Uploader interface {
	UploadFile(ctx context.Context, localPath, mimeType string) error
}

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long a file must be quiet before it is
	// uploaded. This batches rapid writes together and keeps the daemon
	// from uploading files still being copied into the tree.
	DebounceInterval time.Duration

	// IncludeVideo also uploads video media.
	IncludeVideo bool

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the mirror tree and drives incremental uploads.
type Daemon struct {
	uploader   Uploader
	rootFolder string
	config     *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> last event time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching rootFolder. Use Start to begin watching.
func New(uploader Uploader, rootFolder string, config *Config) (*Daemon, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader cannot be nil")
	}
	if rootFolder == "" {
		return nil, fmt.Errorf("rootFolder cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		uploader:    uploader,
		rootFolder:  rootFolder,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins watching. It blocks until ctx is cancelled or a fatal error
// occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting watch mode")

	if err := d.watchTree(d.rootFolder); err != nil {
		return fmt.Errorf("failed to watch %s: %w", d.rootFolder, err)
	}
	d.config.Logger.Printf("Watching: %s", d.rootFolder)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchTree registers the directory and every non-hidden subdirectory.
// fsnotify watches are not recursive, so new directories are added as
// Create events arrive.
func (d *Daemon) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// watchFileEvents monitors filesystem events and queues media changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// New subdirectories join the watch set.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if !strings.HasPrefix(filepath.Base(event.Name), ".") {
					if err := d.watcher.Add(event.Name); err != nil {
						d.config.Logger.Printf("Failed to watch %s: %v", event.Name, err)
					}
				}
				continue
			}

			if mediaType(event.Name, d.config.IncludeVideo) == "" {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a file event, resetting its debounce clock.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue periodically uploads files whose events have settled.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges uploads every queued file that has been quiet for at
// least the debounce interval. Upload failures stay queued and are retried
// on the next tick.
func (d *Daemon) processPendingChanges() {
	now := time.Now()

	d.changeQueueMu.Lock()
	var settled []string
	for path, last := range d.changeQueue {
		if now.Sub(last) >= d.config.DebounceInterval {
			settled = append(settled, path)
		}
	}
	d.changeQueueMu.Unlock()

	for _, path := range settled {
		if _, err := os.Stat(path); err != nil {
			// Deleted before it settled; nothing to upload.
			d.dequeue(path)
			continue
		}

		mt := mediaType(path, d.config.IncludeVideo)
		if err := d.uploader.UploadFile(d.ctx, path, mt); err != nil {
			d.config.Logger.Printf("Warning: upload of %s failed, will retry: %v", path, err)
			continue
		}
		d.config.Logger.Printf("Uploaded %s", path)
		d.dequeue(path)
	}
}

func (d *Daemon) dequeue(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	delete(d.changeQueue, path)
}

// mediaType returns the extension-derived mime type when the file is media
// the daemon should upload, and "" otherwise.
func mediaType(path string, includeVideo bool) string {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return ""
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	if strings.HasPrefix(mt, "image/") || (includeVideo && strings.HasPrefix(mt, "video/")) {
		return mt
	}
	return ""
}

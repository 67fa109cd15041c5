// Package syncer reconciles a remote media collection against the local
// mirror and its durable index.
//
// # Overview
//
// A run pulls the remote item stream, disambiguates colliding filenames
// through the duplicate resolver, skips items the index or the filesystem
// already confirms, and downloads the rest with crash-safe semantics.
//
// # Architecture
//
//	Remote Catalog (Drive)
//	       │  list / download / upload
//	       ▼
//	    Syncer ──── dedupe.Resolver (stable duplicate ordinals)
//	       │
//	       ├── temp file + rename (atomic materialization)
//	       ▼
//	   index.DB (forward record + reverse lookup, one transaction)
//
// # Resume protocol
//
// Interrupt the process at any point and re-run: items whose index rows
// were committed are skipped by the forward check, fully-renamed files are
// recognized by the reverse lookup, and a transfer that died mid-stream
// left only a temp file that the next attempt discards. No duplicate
// downloads, no renumbering.
//
// Usage:
//
//	db, err := index.Open(root, false)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	s := syncer.New(db, driveCatalog, localfs.New(), syncer.Options{
//	    RootFolder: root,
//	}, nil, nil, nil)
//	stats, err := s.Run(ctx)
package syncer

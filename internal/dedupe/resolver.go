// Package dedupe assigns stable duplicate ordinals to colliding filenames.
//
// Multiple remote items can legitimately carry the same name and target the
// same directory. The resolver disambiguates them with a per-group ordinal
// that is assigned once, in first-seen order, and never changes: re-running
// the sync after an interruption maps every remote item back to the exact
// local name it had before.
package dedupe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/f1sherman/gphotos-sync/internal/index"
)

// Index is the slice of the catalog the resolver needs. *index.DB satisfies
// it; tests substitute a fake.
type Index interface {
	GetByRemoteID(ctx context.Context, remoteID string) (*index.SyncRecord, error)
	MaxDuplicateNo(ctx context.Context, path, origFileName string) (int, bool, error)
}

// Resolver computes duplicate ordinals against the durable index. It never
// consults the filesystem: disk-vs-index disagreement is the orchestrator's
// problem, handled with a single reconciliation check rather than recursion.
type Resolver struct {
	idx Index
}

// New creates a Resolver backed by the given index.
func New(idx Index) *Resolver {
	return &Resolver{idx: idx}
}

// Resolve returns the duplicate ordinal for a (path, origFileName, remoteID)
// candidate, with this precedence:
//
//  1. A record already exists for remoteID: return its stored ordinal.
//     The same remote item always maps to the same local name across runs.
//  2. Otherwise the next free ordinal in the collision group: max + 1,
//     or 0 when the group is empty.
//
// First-seen assignment is therefore gap-free: N colliding items indexed in
// order receive ordinals 0 through N-1.
func (r *Resolver) Resolve(ctx context.Context, path, origFileName, remoteID string) (int, error) {
	rec, err := r.idx.GetByRemoteID(ctx, remoteID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up remote id %s: %w", remoteID, err)
	}
	if rec != nil {
		return rec.DuplicateNo, nil
	}

	max, ok, err := r.idx.MaxDuplicateNo(ctx, path, origFileName)
	if err != nil {
		return 0, fmt.Errorf("failed to query collision group: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return max + 1, nil
}

// FileName embeds a duplicate ordinal into a filename. Ordinal 0 leaves the
// name unchanged; higher ordinals insert " (N)" before the extension:
//
//	FileName("IMG_0001.jpg", 2) == "IMG_0001 (2).jpg"
func FileName(origFileName string, duplicateNo int) string {
	if duplicateNo == 0 {
		return origFileName
	}
	ext := filepath.Ext(origFileName)
	base := strings.TrimSuffix(origFileName, ext)
	return fmt.Sprintf("%s (%d)%s", base, duplicateNo, ext)
}

package syncer

// RunStats summarizes one reconciliation run.
type RunStats struct {
	// Synced counts items downloaded (or indexed, in index-only mode)
	// during this run.
	Synced int

	// Skipped counts items confirmed already present by the existence
	// checks; no I/O was performed for them.
	Skipped int

	// Failed counts items abandoned after per-item errors.
	Failed int
}

// Events receives notifications as the run progresses. Implemented by the
// dashboard; all methods are called from the single sync goroutine.
type Events interface {
	// ItemSynced is called after an item's index rows are committed.
	ItemSynced(remoteID, path, fileName string)

	// ItemFailed is called when an item is abandoned.
	ItemFailed(remoteID, name string, err error)

	// RunComplete is called once, after the loop finishes.
	RunComplete(stats RunStats)
}

// noopEvents keeps the loop free of nil checks.
type noopEvents struct{}

func (noopEvents) ItemSynced(string, string, string) {}
func (noopEvents) ItemFailed(string, string, error)  {}
func (noopEvents) RunComplete(RunStats)              {}

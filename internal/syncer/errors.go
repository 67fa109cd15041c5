package syncer

import "errors"

// Per-item errors surfaced by the reconciliation loop. Both are non-fatal:
// they are reported, counted, and the loop moves on to the next item.
var (
	// ErrTransferFailed is returned for an item after the retry policy is
	// exhausted without a successful transfer.
	ErrTransferFailed = errors.New("transfer failed after retries")

	// ErrPathResolution is returned when the remote folder hierarchy for
	// an item cannot be resolved into a local target directory.
	ErrPathResolution = errors.New("could not resolve remote folder path")
)

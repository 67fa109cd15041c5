package index

import "errors"

// Common errors returned by index operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, index.ErrUnsupportedSchema) {
//	    // Handle an index written by a newer release
//	}
var (
	// ErrStoreUnavailable is returned when the backing store cannot be
	// created or opened under the requested root folder.
	ErrStoreUnavailable = errors.New("index store unavailable")

	// ErrUnsupportedSchema is returned when the stored schema version is
	// newer than this build supports. The store is left untouched.
	ErrUnsupportedSchema = errors.New("index schema newer than supported")

	// ErrDuplicateKey is returned by Put when a record with the same
	// remote id already exists. Callers are expected to check existence
	// first; hitting this error indicates a contract violation.
	ErrDuplicateKey = errors.New("remote id already indexed")
)

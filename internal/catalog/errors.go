package catalog

import "errors"

// Common errors returned by catalog implementations.
var (
	// ErrNoRemoteRoot is returned when the expected top-level media
	// container cannot be located in the remote store.
	ErrNoRemoteRoot = errors.New("remote media root not found")

	// ErrFolderNotFound is returned when a folder lookup by name or id
	// matches nothing.
	ErrFolderNotFound = errors.New("remote folder not found")

	// ErrItemNotFound is returned when an item lookup by id matches
	// nothing.
	ErrItemNotFound = errors.New("remote item not found")
)

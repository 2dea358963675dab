package types

import "errors"

var (
	// ErrNotFound marks a lookup for a patch, file or user that does
	// not exist. Surfaced to the caller, never retried.
	ErrNotFound = errors.New("resource not found")

	// ErrPackagingFailed marks a zip export that failed partway. A
	// patch with zero files is NOT this error: it packs to a valid
	// empty archive.
	ErrPackagingFailed = errors.New("packaging failed")

	// ErrValidation marks input rejected before any write happened.
	ErrValidation = errors.New("validation failed")
)

package types

import "errors"

var (
	// ErrNotFound is returned when a file or category does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidRoot is returned when the scan root is missing or not a directory
	ErrInvalidRoot = errors.New("invalid scan root")
	// ErrIndexingInProgress is returned when a build is already running
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrUnknownFormat is returned for an output format other than index or categories
	ErrUnknownFormat = errors.New("unknown output format")

	// Validation errors
	ErrEmptyID          = errors.New("id cannot be empty")
	ErrIDPathMismatch   = errors.New("id must equal path")
	ErrCategoryMismatch = errors.New("category does not match path")
	ErrInvalidDepth     = errors.New("depth does not match path")
	ErrNegativeSize     = errors.New("size cannot be negative")
)

// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrUnclassified means a source path matched no content category.
	ErrUnclassified = errors.New("unclassified content path")
	// ErrSlugConflict means a page path was already claimed.
	ErrSlugConflict = errors.New("slug conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Package storage defines the file-system abstraction for the content tree
// and the generated site.
package storage

import "time"

// File is a lightweight representation returned by list operations.
type File struct {
	Path      string    `json:"path"` // slash-separated, relative to root
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for content and output file operations.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns metadata for every .md file under dir (relative to root).
	List(dir string) ([]File, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Clear removes everything below root, keeping root itself.
	Clear() error
}

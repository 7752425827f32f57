// Package storage defines the archive directory abstraction.
package storage

import "github.com/starford/grampsxml/internal/models"

// Provider is the interface for archive file operations. Paths are relative
// to the archive root.
//
// Errors match apperr.ErrNotFound when the file does not exist,
// apperr.ErrInvalidPath when the path escapes the root and apperr.ErrIO for
// any other file system failure.
type Provider interface {
	// List returns metadata for every archive file under dir.
	List(dir string) ([]models.ArchiveMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
}

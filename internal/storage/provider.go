// Package storage defines scoped file access under the insights directory.
package storage

import "github.com/starford/insights/internal/models"

// Provider is the interface for insights file operations. All paths are
// relative to the provider root.
type Provider interface {
	// List returns metadata for the .md files directly inside dir, in
	// directory enumeration order.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Stat returns metadata for the file at path.
	Stat(path string) (models.FileMeta, error)
	// EnsureDir creates dir if it does not exist.
	EnsureDir(dir string) error
	// Abs returns the absolute filesystem path for path.
	Abs(path string) (string, error)
}

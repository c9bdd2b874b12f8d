// Package storage defines the site file-system abstraction used to read and
// rewrite posts.
package storage

import "github.com/starford/narrate/internal/models"

// Provider is the interface for site file operations. All paths are relative
// to the site root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.PostMetadata, error)
	// Read returns the full contents of the file at path.
	Read(path string) ([]byte, error)
	// Write replaces the file at path with content in one atomic step.
	Write(path string, content []byte) error
	// Abs resolves path to an absolute location inside the site root.
	Abs(path string) (string, error)
}

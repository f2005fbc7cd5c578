// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/mannaz/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// ListExt returns metadata for every file under dir whose lowercase
	// extension is in exts (e.g. ".md", ".jpg").
	ListExt(dir string, exts ...string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
	// Trash moves the file at path into the vault's trash folder and
	// returns the trashed path. Collisions in the trash get a numeric
	// suffix rather than overwriting.
	Trash(path string) (string, error)
	// Stat returns metadata for a single file.
	Stat(path string) (models.FileMetadata, error)
}

// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileInfo is lightweight metadata for one note file.
type FileInfo struct {
	Path      string    `json:"path"` // vault-relative, forward slashes
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Root returns the absolute vault root directory.
	Root() string
	// List walks dir and returns metadata for every recognized note file.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}

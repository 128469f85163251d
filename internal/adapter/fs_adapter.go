// Package adapter contains process and filesystem adapters for the subset checker.
package adapter

import (
	"errors"
	"io/fs"
	"os"
)

// FSAdapter abstracts the filesystem operations the domain layer relies on,
// so suite loading and comparison can be tested without touching the disk.
type FSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path string) ([]byte, error)

	// FileExists reports whether path names an existing regular file.
	FileExists(path string) bool

	// CreateTempDir creates a fresh temporary directory.
	CreateTempDir(pattern string) (string, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path string) error
}

// LocalFSAdapter is the os-backed FSAdapter.
type LocalFSAdapter struct{}

// NewLocalFSAdapter constructs a LocalFSAdapter.
func NewLocalFSAdapter() *LocalFSAdapter {
	return &LocalFSAdapter{}
}

// ReadFile loads a file from disk.
func (a *LocalFSAdapter) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- paths come from suite descriptions.
}

// FileExists reports whether path is an existing regular file.
func (a *LocalFSAdapter) FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

// CreateTempDir creates a temporary directory under the OS temp dir.
func (a *LocalFSAdapter) CreateTempDir(pattern string) (string, error) {
	return os.MkdirTemp("", pattern)
}

// RemoveAll removes path recursively. A missing path is not an error.
func (a *LocalFSAdapter) RemoveAll(path string) error {
	err := os.RemoveAll(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

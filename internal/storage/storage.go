// Package storage provides the filesystem capability used to read source
// images and persist transformed output.
package storage

import (
	"context"
	"io/fs"
)

// Storage defines the file operations the transformation engine needs.
// Paths are used as given; resolving relative paths is the caller's job.
type Storage interface {
	// ReadFile returns the full content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile creates or truncates the file at path and writes data to it.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Rename moves oldpath to newpath, replacing newpath if it exists.
	Rename(ctx context.Context, oldpath, newpath string) error

	// Remove deletes the file at path. A missing file is not an error.
	Remove(ctx context.Context, path string) error

	// Stat returns file information for path.
	Stat(ctx context.Context, path string) (fs.FileInfo, error)

	// IsFile reports whether path exists and is a regular file.
	IsFile(ctx context.Context, path string) (bool, error)

	// MkdirAll creates the directory path and any missing parents.
	MkdirAll(ctx context.Context, path string) error
}

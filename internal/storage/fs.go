package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// FSStorage implements Storage on top of an afero filesystem.
type FSStorage struct {
	fs afero.Fs
}

// NewFSStorage wraps an afero filesystem.
func NewFSStorage(fsys afero.Fs) *FSStorage {
	return &FSStorage{fs: fsys}
}

// NewOSStorage returns storage backed by the real operating system filesystem.
func NewOSStorage() *FSStorage {
	return NewFSStorage(afero.NewOsFs())
}

// NewMemStorage returns storage backed by an in-memory filesystem.
func NewMemStorage() *FSStorage {
	return NewFSStorage(afero.NewMemMapFs())
}

// Fs exposes the underlying filesystem.
func (s *FSStorage) Fs() afero.Fs {
	return s.fs
}

// ReadFile reads the file at path.
func (s *FSStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// WriteFile writes data to path.
func (s *FSStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Rename moves oldpath to newpath.
func (s *FSStorage) Rename(ctx context.Context, oldpath, newpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Remove deletes path, ignoring a missing file.
func (s *FSStorage) Remove(ctx context.Context, path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Stat returns file information for path.
func (s *FSStorage) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fs.Stat(path)
}

// IsFile reports whether path exists and is not a directory.
func (s *FSStorage) IsFile(ctx context.Context, path string) (bool, error) {
	info, err := s.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// MkdirAll creates path and any missing parents.
func (s *FSStorage) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

var _ Storage = (*FSStorage)(nil)

// Package filestorage implements Storage interface that uses files on disk as storage.
package filestorage

import (
	"os"
	"path/filepath"

	"github.com/drizzle-bt/drizzle/internal/storage"
)

// FileStorage opens files under a destination directory.
type FileStorage struct {
	dest string
}

var _ storage.Storage = (*FileStorage)(nil)

// New returns a FileStorage that saves files under dest.
func New(dest string) (*FileStorage, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}
	return &FileStorage{dest: dest}, nil
}

// Open the file with name under the destination directory.
// Missing parent directories are created and the file is truncated or extended to size.
func (s *FileStorage) Open(name string, size int64) (storage.File, error) {
	name = filepath.Join(s.dest, filepath.Clean(name))
	if err := os.MkdirAll(filepath.Dir(name), os.ModeDir|0750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0640) // nolint: gosec
	if err != nil {
		return nil, err
	}
	if err = f.Truncate(size); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err = adviseRandomAccess(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

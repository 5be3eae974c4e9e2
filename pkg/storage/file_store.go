package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore saves uploaded files to disk under a base directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Path returns the on-disk location for a stored name.
func (f *FileStore) Path(name string) string {
	return filepath.Join(f.basePath, name)
}

// Save writes r to the named file, creating the base directory when it has
// been removed since startup.
func (f *FileStore) Save(_ context.Context, name string, r io.Reader, _ int64) (int64, error) {
	if !validName(name) {
		return 0, ErrInvalidName
	}
	if err := os.MkdirAll(f.basePath, 0o755); err != nil {
		return 0, fmt.Errorf("create storage dir: %w", err)
	}
	out, err := os.OpenFile(f.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write file: %w", err)
	}
	return n, nil
}

// Open returns the named file ready for streaming.
func (f *FileStore) Open(_ context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	file, err := os.Open(f.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}
	return &Object{ReadSeekCloser: file, Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes the named file; a file that is already gone counts as removed.
func (f *FileStore) Delete(_ context.Context, name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if err := os.Remove(f.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

package handler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MediaStore writes uploaded file streams under one directory. The
// decoder hands over raw byte streams; persisting them is the
// handler's job, and a failed or aborted copy must not leave a half
// file behind.
type MediaStore struct {
	dir string
}

func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Save drains r into a uniquely named file and returns its path. Only
// the extension of the client-supplied filename survives; the rest of
// the name is generated.
func (m *MediaStore) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filepath.Base(originalName))
	path := filepath.Join(m.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}

// Remove deletes a previously saved file, ignoring absence.
func (m *MediaStore) Remove(path string) {
	if path != "" {
		os.Remove(path)
	}
}

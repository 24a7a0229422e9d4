package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileDocument keeps the document in a JSON file on disk.
type FileDocument struct {
	Path string
}

func NewFileDocument(path string) (*FileDocument, error) {
	if path == "" {
		return nil, errors.New("file document path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileDocument{Path: path}, nil
}

func (f *FileDocument) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDocument
	}
	return data, err
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers never see a partially written document.
func (f *FileDocument) Save(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".posts-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileDocument) Remove(ctx context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileDocument) Close() error { return nil }

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media files below a root directory on disk.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root is the directory served under the media URL.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStore) Save(ctx context.Context, key, _ string, body io.Reader) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close media file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(f.Name(), target)
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(key, "/")
}

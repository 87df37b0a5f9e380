package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/studynotion/apiserver/config"
)

// LocalMediaRoute is where the API server serves locally stored media.
const LocalMediaRoute = "/media"

// LocalStorage keeps objects on the local filesystem. Used for development
// and tests.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(cfg config.LocalConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if strings.TrimSpace(basePath) == "" {
		basePath = "./uploads"
	}
	return &LocalStorage{basePath: basePath}, nil
}

// EnsureBucket creates the base directory.
func (s *LocalStorage) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	return nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("write file: %w", err)
	}
	return file.Close()
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Bucket returns the base directory.
func (s *LocalStorage) Bucket() string {
	return s.basePath
}

func (s *LocalStorage) BaseURL() string {
	return LocalMediaRoute
}

// path resolves key inside the base directory, rejecting traversal.
func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", errors.New("empty object key")
	}
	return filepath.Join(s.basePath, clean), nil
}

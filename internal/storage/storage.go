package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/services"
)

// ErrNotHosted is returned when a URL does not point into the media store.
var ErrNotHosted = services.ErrForeignMedia

// ObjectStorage defines common object operations across backends.
// Deleting a missing object is not an error.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
	// BaseURL is the public URL objects are served under when no override
	// is configured.
	BaseURL() string
}

// MediaStore hosts uploaded course media on an ObjectStorage backend and
// addresses it by public URL.
type MediaStore struct {
	backend ObjectStorage
	folder  string
	baseURL string
	now     func() time.Time
}

// NewMediaStore wraps backend. An empty baseURL falls back to the backend's
// own public URL.
func NewMediaStore(backend ObjectStorage, folder, baseURL string) *MediaStore {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = backend.BaseURL()
	}
	return &MediaStore{
		backend: backend,
		folder:  strings.Trim(folder, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Open connects the backend selected by cfg and wraps it in a MediaStore.
func Open(ctx context.Context, cfg config.StorageConfig) (*MediaStore, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(cfg.Backend) {
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	case "local":
		backend, err = NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewMediaStore(backend, cfg.Folder, cfg.PublicBaseURL), nil
}

// Upload stores the file under a fresh key and returns its public URL.
func (m *MediaStore) Upload(ctx context.Context, file services.Upload) (string, error) {
	key := m.newKey(file.Filename)
	if err := m.backend.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return m.URL(key), nil
}

// Delete removes the object a public URL points to.
func (m *MediaStore) Delete(ctx context.Context, url string) error {
	key, err := m.Key(url)
	if err != nil {
		return err
	}
	return m.backend.Delete(ctx, key)
}

// Get opens the object stored under key.
func (m *MediaStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.backend.Get(ctx, key)
}

// URL returns the public URL of key.
func (m *MediaStore) URL(key string) string {
	return m.baseURL + "/" + key
}

// Key maps a public URL back to its object key.
func (m *MediaStore) Key(url string) (string, error) {
	key, ok := strings.CutPrefix(url, m.baseURL+"/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrNotHosted, url)
	}
	return key, nil
}

// Bucket returns the backend bucket name.
func (m *MediaStore) Bucket() string {
	return m.backend.Bucket()
}

func (m *MediaStore) newKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	return path.Join(m.folder, m.now().UTC().Format("2006/01"), name)
}

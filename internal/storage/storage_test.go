package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/services"
)

func newLocalMedia(t *testing.T, baseURL string) (*MediaStore, string) {
	t.Helper()
	dir := t.TempDir()
	media, err := Open(context.Background(), config.StorageConfig{
		Backend:       "local",
		Folder:        "studynotion",
		PublicBaseURL: baseURL,
		Local:         config.LocalConfig{BasePath: dir},
	})
	require.NoError(t, err)
	return media, dir
}

func TestMediaStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	media, dir := newLocalMedia(t, "http://localhost:4000/media")

	url, err := media.Upload(ctx, services.Upload{
		Filename:    "Thumb.PNG",
		ContentType: "image/png",
		Size:        3,
		Body:        strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:4000/media/studynotion/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	key, err := media.Key(url)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, key))
	require.NoError(t, err)

	r, err := media.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "png", string(body))

	require.NoError(t, media.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, media.Delete(ctx, url), "deleting twice is not an error")
}

func TestMediaStoreDefaultsToBackendURL(t *testing.T) {
	media, _ := newLocalMedia(t, "")
	assert.Equal(t, "/media/a/b.mp4", media.URL("a/b.mp4"))
}

func TestMediaStoreRejectsForeignURL(t *testing.T) {
	media, _ := newLocalMedia(t, "http://localhost:4000/media")

	err := media.Delete(context.Background(), "https://res.cloudinary.com/demo/image.png")
	assert.ErrorIs(t, err, ErrNotHosted)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStorage(config.LocalConfig{BasePath: filepath.Join(dir, "media")})
	require.NoError(t, err)
	require.NoError(t, local.EnsureBucket(context.Background()))

	require.NoError(t, local.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "media", "escape.txt"))
	assert.NoError(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "cloudinary"})
	assert.Error(t, err)
}

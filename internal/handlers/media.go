package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studynotion/apiserver/internal/logger"
)

// MediaSource opens stored media objects by key.
type MediaSource interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// MediaRouter serves media objects kept by the local storage backend.
func MediaRouter(r chi.Router, source MediaSource, log *logger.Logger) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
		if key == "" {
			writeFailure(w, http.StatusNotFound, "Media not found", nil)
			return
		}

		body, err := source.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				writeFailure(w, http.StatusNotFound, "Media not found", nil)
				return
			}
			writeError(w, r, log, err)
			return
		}
		defer body.Close()

		if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			log.Warn("stream media", "key", key, "error", err)
		}
	})
}

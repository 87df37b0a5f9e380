package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/studynotion/apiserver/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 512 << 20

	formFieldThumbnail = "thumbnailImage"
	formFieldVideo     = "video"
)

// parseForm accepts multipart and urlencoded bodies.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return badRequest("Invalid multipart form")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return badRequest("Invalid form")
	}
	return nil
}

// formFile opens the single file uploaded under field. It returns a nil
// upload when the field is absent. The caller must run the returned closer.
func formFile(r *http.Request, field string) (*services.Upload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, noop, nil
	}
	if len(files) > 1 {
		return nil, noop, badRequest("Only one " + field + " file is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, noop, errors.New("open " + field + ": " + err.Error())
	}

	upload := &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return upload, func() { _ = file.Close() }, nil
}

// optionalValue returns a pointer to the form value when the field was sent.
func optionalValue(r *http.Request, field string) *string {
	values, ok := r.Form[field]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/logger"
)

const maxJSONBody = 1 << 20

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: false, Message: message, Data: data})
}

// writeError maps err onto a status code. Upstream and unexpected failures
// are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var invalid *invalidRequest
	if errors.As(err, &invalid) {
		writeFailure(w, http.StatusBadRequest, invalid.message, invalid.fields)
		return
	}

	appErr, ok := apperr.As(err)
	if !ok {
		log.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeFailure(w, http.StatusInternalServerError, "Something went wrong, please try again", nil)
		return
	}

	status := statusOf(appErr.Kind)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", err,
		)
		message := "Something went wrong, please try again"
		if appErr.Kind == apperr.Upstream {
			message = appErr.Message
		}
		writeFailure(w, status, message, nil)
		return
	}
	writeFailure(w, status, appErr.Message, nil)
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Request body is required")
		}
		return badRequest("Invalid JSON body")
	}
	return validateStruct(dst)
}

func parseOptionalInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseOptionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "Your server is up and running", nil)
}

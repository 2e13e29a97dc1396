package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/protweight/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusOf maps an apperr kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrGraphInconsistency):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError writes err with the status of its kind. Server errors are logged
// and their details hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusOf(err)
	if status < http.StatusInternalServerError {
		writeJSON(w, status, errorBody(err.Error()))
		return
	}
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		slog.Debug(op+" aborted by client", slog.String("path", r.URL.Path))
		return
	}
	slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	writeJSON(w, status, errorBody("internal error"))
}

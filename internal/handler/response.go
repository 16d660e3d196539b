package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "package not found with id foo"}
//
// plus "field" when a single request parameter is at fault.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/package-registry/internal/apperror"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse = apperror.Response

// Meta carries paging information alongside a page of results.
type Meta struct {
	More bool `json:"more"`
}

// OKResponse acknowledges a write with nothing else to return.
type OKResponse struct {
	OK bool `json:"ok"`
}

// writeJSON sets headers and status before encoding the body; nothing can be
// changed once the first byte is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to a status code. Anything that is not an
// *apperror.AppError is reported as a bare 500 and logged, never echoed.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	kind := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		kind = "validation_error"
	case errors.Is(err, apperror.ErrInvalidState):
		status = http.StatusBadRequest
		kind = "invalid_state"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		kind = "not_found"
	case errors.Is(err, apperror.ErrAuthRequired):
		status = http.StatusForbidden
		kind = "auth_required"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		kind = "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// queryInt reads an optional integer query parameter. A missing value yields
// def; a non-numeric one is a validation error naming the parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}

// paging reads page and per_page. Range checks are left to the service.
func paging(r *http.Request, defaultPerPage int) (page, perPage int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if perPage, err = queryInt(r, "per_page", defaultPerPage); err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}

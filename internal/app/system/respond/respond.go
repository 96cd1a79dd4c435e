// Package respond writes JSON responses and maps apperr kinds to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// errorBody is the JSON envelope for failures.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent writes 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Status maps an apperr kind to its HTTP status.
func Status(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error. Server errors are logged with the
// request path and their cause; the caller only sees a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := Status(kind)
	if status >= 500 && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	JSON(w, status, errorBody{Error: apperr.Message(err)})
}

// Decode reads a JSON request body into v. A malformed body is a
// validation error.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("Invalid JSON body.")
	}
	return nil
}

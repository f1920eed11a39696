// Package handler is the HTTP layer: it parses requests, calls services,
// and writes JSON responses. No business rules live here — handlers
// translate between HTTP and the service layer's types and errors.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/ideahub/internal/apperror"
)

// ApiResponse is the uniform success envelope every endpoint returns:
// the payload under data, an optional human-readable message, and a
// success flag clients can branch on without inspecting status codes.
type ApiResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrorResponse is the uniform error shape: a machine-readable error type
// and a human-readable message. Validation failures also name the offending
// input field so clients can attach the message to the right form control.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a raw JSON response. Headers and status must be written
// before the body; once Encode starts writing, they are locked in.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeData wraps the payload in the ApiResponse envelope and sends it.
func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, ApiResponse{
		Data:    data,
		Message: message,
		Success: true,
	})
}

// writeError maps a domain error to its HTTP status and sends the error
// shape. The service layer returns apperror sentinels; this is the single
// place they become status codes. Unknown errors become an opaque 500 —
// raw error strings never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrStore):
			// Store failures stay opaque: the message on the AppError names
			// the operation, not the SQL.
			status = http.StatusInternalServerError
			errorType = "internal_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, r, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//
//   {
//     "errorCode":    "NOT_FOUND",
//     "errorMessage": "there is no user with id 7",
//     "timeStamp":    "2026-01-02T03:04:05Z",
//     "requestId":    "cq2v9h0f0g3c73a1bq10"
//   }
//
// Structural validation failures add "fields": {"username": "..."}.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/middleware"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	ErrorCode    string            `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	TimeStamp    time.Time         `json:"timeStamp"`
	RequestID    string            `json:"requestId"`
	Fields       map[string]string `json:"fields,omitempty"`
}

// genericInternalMessage replaces the message of every 500. Internal errors
// can carry SQL or file paths and are only written to the log.
const genericInternalMessage = "An internal error occurred"

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once the
// encoder writes, headers are sent and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidInput), errors.Is(err, apperror.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a domain error to its HTTP status and error body.
//
// The service layer never sees status codes. errors.Is walks the whole
// chain, so an *AppError wrapped by fmt.Errorf still maps correctly.
// Anything outside the taxonomy becomes a 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := ErrorResponse{
		ErrorCode:    apperror.Code(err),
		ErrorMessage: genericInternalMessage,
		TimeStamp:    time.Now().UTC(),
		RequestID:    middleware.RequestIDFromContext(r.Context()),
	}

	var appErr *apperror.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		body.ErrorMessage = appErr.Message
		body.Fields = appErr.Fields
		if appErr.Field != "" && body.Fields == nil {
			body.Fields = map[string]string{appErr.Field: appErr.Message}
		}
	}

	writeJSON(w, status, body)
}

// Package handler is the HTTP layer: each handler decodes one request,
// calls a service and writes the JSON response.
//
// Handlers hold no business rules. They own what only HTTP knows about:
// URL parameters, body size limits, cookies, redirects and status codes.
// Every failure goes through writeError, which maps the apperror taxonomy
// to a status so that services never pick HTTP codes themselves.
//
//	WebhookHandler → POST /webhooks/{provider}
//	PlanHandler    → POST /plan/generate
//	AuthHandler    → /auth/...
//	DebugHandler   → GET /debug/latest (only with DEBUG_ROUTES)
//	HealthHandler  → GET /, GET /healthz
package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "user not found: a@x.com"}
//
// so the frontend can always tell what went wrong from the "error" code,
// whatever the status.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pathnova/pathnova-api/internal/apperror"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable, e.g. "not_found"
	Message string `json:"message"`         // human-readable
	Field   string `json:"field,omitempty"` // request field that failed validation
}

// writeJSON sends data with status. Headers must be set before the status
// is written, and the status before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status and error code. Errors
// that are not *apperror.AppError are internal.
func statusFor(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error"
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError sends err as an ErrorResponse. Internal errors are logged with
// their detail and answered with a generic message; their text may contain
// SQL or file paths.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := statusFor(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an unexpected error occurred",
		})
		return
	}
	if status == http.StatusBadGateway {
		logger.Error("upstream call failed", slog.String("error", err.Error()))
	}

	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "request body too large")
		}
		return apperror.ValidationFailed("body", "request body must be a JSON object")
	}
	return nil
}

// ErrorWriter exposes writeError to middleware in other packages, such as
// the auth guard, so their rejections share the ErrorResponse shape.
func ErrorWriter(logger *slog.Logger) func(http.ResponseWriter, error) {
	return func(w http.ResponseWriter, err error) {
		writeError(w, logger, err)
	}
}

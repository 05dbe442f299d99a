package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, err)
//   writeEnvelopeError(w, err, "repos")
//
// TWO ERROR SHAPES:
// Plain endpoints (/api/me, /auth/*) answer with
//   {"error": "not_found", "message": "account not found with id ..."}
//
// Repository endpoints keep their result envelope, with the payload nulled
// and the message in "error", so the frontend reads one shape per endpoint:
//   {"repos": null, "error": "bad github token"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/repoedit/internal/apperror"
)

// ErrorResponse is the standard error format of the plain endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// classifyError maps a domain error to (HTTP status, error type, client message).
//
// errors.Is() walks the whole chain, so a service error like
//
//	fmt.Errorf("service/writer: create tree: %w", apperror.BadToken())
//
// still matches ErrBadToken here.
//
//	ErrValidation           → 400
//	ErrAuth                 → 401
//	ErrBadToken, Forbidden  → 403
//	ErrNotFound             → 404
//	ErrConflict             → 409
//	ErrMalformed, Transport → 502 (GitHub misbehaved, not us)
//	ErrDecrypt, unknown     → 500
func classifyError(err error) (int, string, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// NEVER expose internal error details to the client.
		return http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error", appErr.Message
	case errors.Is(err, apperror.ErrAuth):
		return http.StatusUnauthorized, "auth_failed", appErr.Message
	case errors.Is(err, apperror.ErrBadToken):
		return http.StatusForbidden, "bad_token", apperror.BadTokenMessage
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden", appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found", appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict", appErr.Message
	case errors.Is(err, apperror.ErrMalformed), errors.Is(err, apperror.ErrTransport):
		return http.StatusBadGateway, "upstream_error", appErr.Message
	case errors.Is(err, apperror.ErrDecrypt):
		return http.StatusInternalServerError, "decrypt_error", "stored GitHub token could not be decrypted; please log in again"
	default:
		return http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}
}

// writeError sends a domain error in the ErrorResponse shape.
func writeError(w http.ResponseWriter, err error) {
	status, errorType, message := classifyError(err)
	writeJSON(w, status, ErrorResponse{Error: errorType, Message: message})
}

// writeEnvelopeError sends a domain error inside a result envelope:
// every name in nullFields is written as null next to "error".
func writeEnvelopeError(w http.ResponseWriter, err error, nullFields ...string) {
	status, _, message := classifyError(err)
	body := map[string]any{"error": message}
	for _, f := range nullFields {
		body[f] = nil
	}
	writeJSON(w, status, body)
}

// logFailure logs err at a level matching its status: server-side and
// upstream failures are errors, client mistakes are warnings.
func logFailure(logger *slog.Logger, r *http.Request, msg string, err error) {
	status, _, _ := classifyError(err)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(msg, attrs...)
		return
	}
	logger.Warn(msg, attrs...)
}

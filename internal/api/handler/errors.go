package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/metrics"
	"github.com/kiranshivaraju/timetrack/internal/service"
)

// writeError maps a service error onto the error envelope. Validation and
// conflict messages are written to the caller verbatim; anything unexpected
// is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	msg := ""
	if errors.As(err, &svcErr) {
		msg = svcErr.Message
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required", nil)
	case errors.Is(err, service.ErrInvalidCredential):
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, service.ErrForbidden):
		metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", nil)
	case errors.Is(err, service.ErrNotFound):
		metrics.AccessDeniedTotal.WithLabelValues("not_found").Inc()
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, service.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
	case errors.Is(err, service.ErrConflict):
		response.Error(w, http.StatusConflict, "CONFLICT", msg, nil)
	case errors.Is(err, service.ErrTooManyAttempts):
		w.Header().Set("Retry-After", "60")
		response.Error(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
			"Too many failed login attempts. Try again later.", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
}

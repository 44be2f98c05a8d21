package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/auth"
	"github.com/kiranshivaraju/timetrack/internal/metrics"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// TokenVerifier decodes a bearer credential into a principal.
type TokenVerifier interface {
	Verify(token string) (models.Principal, error)
}

// Auth provides authentication and role-checking middleware.
type Auth struct {
	tokens TokenVerifier
}

// NewAuth creates a new Auth middleware.
func NewAuth(tokens TokenVerifier) *Auth {
	return &Auth{tokens: tokens}
}

// Authenticate validates the Bearer token and sets the principal in the
// request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearerToken(r)
		if raw == "" {
			metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		p, err := a.tokens.Verify(raw)
		if err != nil {
			metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
			msg := "Invalid session token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "Missing or invalid Authorization header"
			}
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", msg, nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetPrincipal(r.Context(), p)))
	})
}

// RequireRole returns middleware that rejects principals below role.
func (a *Auth) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r)
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				response.Error(w, http.StatusUnauthorized,
					"INVALID_TOKEN", "Authentication required", nil)
				return
			}
			if err := access.RequireRole(p, role); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
				response.Error(w, http.StatusForbidden,
					"FORBIDDEN", "Insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

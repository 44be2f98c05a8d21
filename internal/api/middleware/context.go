package middleware

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	// logSlotKey holds a *models.Principal owned by Logger, filled in when
	// authentication succeeds further down the chain.
	logSlotKey contextKey = "log_principal"
)

// SetPrincipal attaches the authenticated principal to ctx.
func SetPrincipal(ctx context.Context, p models.Principal) context.Context {
	if slot, ok := ctx.Value(logSlotKey).(*models.Principal); ok {
		*slot = p
	}
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal set by Authenticate.
func GetPrincipal(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(models.Principal)
	return p, ok
}

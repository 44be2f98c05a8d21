package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
)

// Recovery turns a handler panic into a 500 envelope. A panic inside a
// store transaction has already rolled back through InTx's deferred
// Rollback, so no partial mutation or orphan audit row survives it.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := []any{
				"error", rec,
				"stack", string(debug.Stack()),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", chimw.GetReqID(r.Context()),
			}
			if p, ok := GetPrincipal(r); ok {
				attrs = append(attrs, "employee_id", p.EmployeeID)
			}
			slog.ErrorContext(r.Context(), "panic recovered", attrs...)

			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}

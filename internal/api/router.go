package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kiranshivaraju/timetrack/internal/api/handler"
	mw "github.com/kiranshivaraju/timetrack/internal/api/middleware"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	LoginRequestsPerMin int
	CORSAllowedOrigins  []string

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	MeHandler       http.HandlerFunc
	CompanyHandler  http.HandlerFunc

	Employees   handler.Resource
	Customers   handler.Resource
	Locations   handler.Resource
	Jobs        handler.Resource
	TimeEntries handler.TimeEntryHandlers
	AuditLogs   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(deps.CORSAllowedOrigins))
	}

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		r.Group(func(r chi.Router) {
			r.Use(mw.LoginLimit(deps.LoginRequestsPerMin))

			r.Post("/auth/register", orNotImplemented(deps.RegisterHandler))
			r.Post("/auth/login", orNotImplemented(deps.LoginHandler))
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)
			r.Use(deps.RateLimit.Limit)

			r.Get("/me", orNotImplemented(deps.MeHandler))
			r.Get("/company", orNotImplemented(deps.CompanyHandler))

			r.Get("/jobs", orNotImplemented(deps.Jobs.List))
			r.Get("/jobs/{jobID}", orNotImplemented(deps.Jobs.Get))

			r.Get("/time-entries", orNotImplemented(deps.TimeEntries.List))
			r.Post("/time-entries", orNotImplemented(deps.TimeEntries.Create))
			r.Get("/time-entries/{entryID}", orNotImplemented(deps.TimeEntries.Get))
			r.Patch("/time-entries/{entryID}", orNotImplemented(deps.TimeEntries.Update))

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(deps.Auth.RequireRole(models.RoleAdmin))

				mountResource(r, "/employees", "employeeID", deps.Employees)
				mountResource(r, "/customers", "customerID", deps.Customers)
				mountResource(r, "/jobs", "jobID", deps.Jobs)

				r.Get("/customers/{customerID}/locations", orNotImplemented(deps.Locations.List))
				r.Post("/customers/{customerID}/locations", orNotImplemented(deps.Locations.Create))
				mountMember(r, "/locations", "locationID", deps.Locations)

				r.Get("/audit-logs", orNotImplemented(deps.AuditLogs))
			})
		})
	})

	return r
}

// mountResource registers the collection and member routes of a
// soft-deletable resource.
func mountResource(r chi.Router, path, param string, res handler.Resource) {
	r.Get(path, orNotImplemented(res.List))
	r.Post(path, orNotImplemented(res.Create))
	mountMember(r, path, param, res)
}

func mountMember(r chi.Router, path, param string, res handler.Resource) {
	member := path + "/{" + param + "}"
	r.Get(member, orNotImplemented(res.Get))
	r.Patch(member, orNotImplemented(res.Update))
	r.Delete(member, orNotImplemented(res.Archive))
	r.Post(member+"/restore", orNotImplemented(res.Restore))
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api"
	"github.com/kiranshivaraju/timetrack/internal/api/handler"
	mw "github.com/kiranshivaraju/timetrack/internal/api/middleware"
	"github.com/kiranshivaraju/timetrack/internal/auth"
	"github.com/kiranshivaraju/timetrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Ping(_ context.Context) error                     { return nil }
func (c *stubCache) Count(_ context.Context, _ string) (int64, error) { return 0, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error         { return nil }
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

// --- helpers ---

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(name))
	}
}

func namedResource(prefix string) handler.Resource {
	return handler.Resource{
		List:    named(prefix + ".list"),
		Get:     named(prefix + ".get"),
		Create:  named(prefix + ".create"),
		Update:  named(prefix + ".update"),
		Archive: named(prefix + ".archive"),
		Restore: named(prefix + ".restore"),
	}
}

type fixture struct {
	router http.Handler
	tokens *auth.TokenService
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(strings.Repeat("r", 32)),
		Issuer: "timetrack-test",
	})
	deps := api.Dependencies{
		Auth:               mw.NewAuth(tokens),
		RateLimit:          mw.NewRateLimit(&stubCache{}, 1000),
		CORSAllowedOrigins: []string{"https://app.example.com"},
		HealthHandler:      named("health"),

		RegisterHandler: named("register"),
		LoginHandler:    named("login"),
		MeHandler:       named("me"),

		Employees: namedResource("employees"),
		Customers: namedResource("customers"),
		Locations: namedResource("locations"),
		Jobs:      namedResource("jobs"),
		TimeEntries: handler.TimeEntryHandlers{
			List:   named("entries.list"),
			Get:    named("entries.get"),
			Create: named("entries.create"),
			Update: named("entries.update"),
		},
		AuditLogs: named("audit.list"),
	}
	return &fixture{router: api.NewRouter(deps), tokens: tokens}
}

func (f *fixture) token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(uuid.New(), uuid.New(), role)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)["code"].(string)
}

// --- tests ---

func TestRouter_PublicRoutes(t *testing.T) {
	f := setupRouter(t)

	w := f.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "health", w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/auth/login", "")
	assert.Equal(t, "login", w.Body.String())
	w = f.do(http.MethodPost, "/api/v1/auth/register", "")
	assert.Equal(t, "register", w.Body.String())
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	f := setupRouter(t)

	for _, path := range []string{
		"/api/v1/me",
		"/api/v1/jobs",
		"/api/v1/time-entries",
		"/api/v1/admin/employees",
	} {
		w := f.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "INVALID_TOKEN", errCode(t, w))
	}
}

func TestRouter_EmployeeRoutes(t *testing.T) {
	f := setupRouter(t)
	tok := f.token(t, models.RoleEmployee)
	id := uuid.NewString()

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/v1/me", "me"},
		{http.MethodGet, "/api/v1/jobs", "jobs.list"},
		{http.MethodGet, "/api/v1/jobs/" + id, "jobs.get"},
		{http.MethodGet, "/api/v1/time-entries", "entries.list"},
		{http.MethodPost, "/api/v1/time-entries", "entries.create"},
		{http.MethodGet, "/api/v1/time-entries/" + id, "entries.get"},
		{http.MethodPatch, "/api/v1/time-entries/" + id, "entries.update"},
	}
	for _, tc := range cases {
		w := f.do(tc.method, tc.path, tok)
		assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
		assert.Equal(t, tc.want, w.Body.String())
	}
}

func TestRouter_AdminRoutesRejectEmployees(t *testing.T) {
	f := setupRouter(t)
	tok := f.token(t, models.RoleEmployee)
	id := uuid.NewString()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/employees"},
		{http.MethodDelete, "/api/v1/admin/jobs/" + id},
		{http.MethodPost, "/api/v1/admin/customers/" + id + "/restore"},
		{http.MethodGet, "/api/v1/admin/customers/" + id + "/locations"},
		{http.MethodGet, "/api/v1/admin/audit-logs"},
	} {
		w := f.do(tc.method, tc.path, tok)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method+" "+tc.path)
		assert.Equal(t, "FORBIDDEN", errCode(t, w))
	}
}

func TestRouter_AdminRoutes(t *testing.T) {
	f := setupRouter(t)
	tok := f.token(t, models.RoleAdmin)
	id := uuid.NewString()

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/v1/admin/employees", "employees.list"},
		{http.MethodPost, "/api/v1/admin/employees", "employees.create"},
		{http.MethodGet, "/api/v1/admin/employees/" + id, "employees.get"},
		{http.MethodPatch, "/api/v1/admin/employees/" + id, "employees.update"},
		{http.MethodDelete, "/api/v1/admin/employees/" + id, "employees.archive"},
		{http.MethodPost, "/api/v1/admin/employees/" + id + "/restore", "employees.restore"},
		{http.MethodGet, "/api/v1/admin/customers", "customers.list"},
		{http.MethodDelete, "/api/v1/admin/customers/" + id, "customers.archive"},
		{http.MethodGet, "/api/v1/admin/customers/" + id + "/locations", "locations.list"},
		{http.MethodPost, "/api/v1/admin/customers/" + id + "/locations", "locations.create"},
		{http.MethodGet, "/api/v1/admin/locations/" + id, "locations.get"},
		{http.MethodPatch, "/api/v1/admin/locations/" + id, "locations.update"},
		{http.MethodDelete, "/api/v1/admin/locations/" + id, "locations.archive"},
		{http.MethodPost, "/api/v1/admin/locations/" + id + "/restore", "locations.restore"},
		{http.MethodGet, "/api/v1/admin/jobs", "jobs.list"},
		{http.MethodPost, "/api/v1/admin/jobs/" + id + "/restore", "jobs.restore"},
		{http.MethodGet, "/api/v1/admin/audit-logs", "audit.list"},
	}
	for _, tc := range cases {
		w := f.do(tc.method, tc.path, tok)
		assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
		assert.Equal(t, tc.want, w.Body.String())
	}
}

func TestRouter_NotImplemented(t *testing.T) {
	f := setupRouter(t)

	w := f.do(http.MethodGet, "/api/v1/company", f.token(t, models.RoleEmployee))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_IMPLEMENTED", errCode(t, w))
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/me", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_LoginRateLimitedByIP(t *testing.T) {
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte(strings.Repeat("r", 32))})
	router := api.NewRouter(api.Dependencies{
		Auth:                mw.NewAuth(tokens),
		RateLimit:           mw.NewRateLimit(&stubCache{}, 1000),
		LoginRequestsPerMin: 2,
		LoginHandler:        named("login"),
	})

	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errCode(t, last))
}

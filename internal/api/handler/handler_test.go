package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/handler"
	mw "github.com/kiranshivaraju/timetrack/internal/api/middleware"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCustomers returns err from every call and records the last input.
type stubCustomers struct {
	err       error
	lastID    uuid.UUID
	lastInput service.UpdateCustomerInput
}

func (s *stubCustomers) ListCustomers(_ context.Context, _ models.Principal, _ bool) ([]*models.Customer, error) {
	return nil, s.err
}

func (s *stubCustomers) GetCustomer(_ context.Context, _ models.Principal, id uuid.UUID) (*models.Customer, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.Customer{ID: id, Name: "Globex"}, nil
}

func (s *stubCustomers) CreateCustomer(_ context.Context, _ models.Principal, _ service.CreateCustomerInput) (*models.Customer, error) {
	return nil, s.err
}

func (s *stubCustomers) UpdateCustomer(_ context.Context, _ models.Principal, id uuid.UUID, in service.UpdateCustomerInput) (*models.Customer, error) {
	s.lastID = id
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Customer{ID: id}, nil
}

func (s *stubCustomers) ArchiveCustomer(_ context.Context, _ models.Principal, _ uuid.UUID) (*models.Customer, error) {
	return nil, s.err
}

func (s *stubCustomers) RestoreCustomer(_ context.Context, _ models.Principal, _ uuid.UUID) (*models.Customer, error) {
	return nil, s.err
}

func serveCustomers(t *testing.T, svc handler.CustomerService, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	res := handler.NewCustomerResource(svc)
	r := chi.NewRouter()
	r.Get("/customers", res.List)
	r.Get("/customers/{customerID}", res.Get)
	r.Patch("/customers/{customerID}", res.Update)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		p := models.Principal{EmployeeID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleAdmin}
		req = req.WithContext(mw.SetPrincipal(req.Context(), p))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"},
		{"validation", &service.Error{Kind: service.ErrValidation, Message: "Name is required."}, http.StatusBadRequest, "VALIDATION_ERROR", "Name is required."},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "The record already exists."}, http.StatusConflict, "CONFLICT", "The record already exists."},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveCustomers(t, &stubCustomers{err: tt.err}, http.MethodGet, "/customers/"+uuid.NewString(), "", true)

			assert.Equal(t, tt.status, w.Code)
			e := errorOf(t, w)
			assert.Equal(t, tt.code, e["code"])
			assert.Equal(t, tt.message, e["message"])
		})
	}
}

func TestHandler_NoPrincipal(t *testing.T) {
	w := serveCustomers(t, &stubCustomers{}, http.MethodGet, "/customers", "", false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_ListReturnsEmptyArray(t *testing.T) {
	w := serveCustomers(t, &stubCustomers{}, http.MethodGet, "/customers", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestHandler_UpdateDecodesPartialBody(t *testing.T) {
	svc := &stubCustomers{}
	id := uuid.New()

	w := serveCustomers(t, svc, http.MethodPatch, "/customers/"+id.String(),
		`{"name":"Initech","clear_mailing_address":true}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.lastID)
	require.NotNil(t, svc.lastInput.Name)
	assert.Equal(t, "Initech", *svc.lastInput.Name)
	assert.Nil(t, svc.lastInput.Email)
	assert.True(t, svc.lastInput.ClearMailingAddress)
}

func TestHandler_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", "", "Request body is required"},
		{"malformed", "{", "Invalid JSON body"},
		{"unknown field", `{"nmae":"typo"}`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubCustomers{}
			w := serveCustomers(t, svc, http.MethodPatch, "/customers/"+uuid.NewString(), tt.body, true)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, errorOf(t, w)["message"])
			assert.Equal(t, uuid.Nil, svc.lastID)
		})
	}
}

func TestHandler_MalformedPathID(t *testing.T) {
	svc := &stubCustomers{}
	w := serveCustomers(t, svc, http.MethodGet, "/customers/42", "", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, uuid.Nil, svc.lastID)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Degraded(t *testing.T) {
	h := handler.NewHealthHandler(stubPinger{}, stubPinger{err: errors.New("redis down")})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	e := errorOf(t, w)
	assert.Equal(t, "DEGRADED", e["code"])
	assert.Equal(t, "degraded", e["details"].(map[string]any)["cache"])
}

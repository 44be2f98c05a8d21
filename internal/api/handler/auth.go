package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// SessionService defines the session and tenant operations the handlers depend on.
type SessionService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	GetCompany(ctx context.Context, p models.Principal) (*models.Company, error)
}

// NewRegisterHandler returns an http.HandlerFunc for POST /api/v1/auth/register.
func NewRegisterHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyName    string          `json:"company_name"`
			CompanyAddress *models.Address `json:"company_address"`
			CompanyPhone   string          `json:"company_phone"`
			AdminName      string          `json:"admin_name"`
			AdminEmail     string          `json:"admin_email"`
			AdminPassword  string          `json:"admin_password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CompanyAddress == nil {
			badRequest(w, "company_address is required")
			return
		}

		sess, err := svc.Register(r.Context(), service.RegisterInput{
			CompanyName:    req.CompanyName,
			CompanyAddress: *req.CompanyAddress,
			CompanyPhone:   req.CompanyPhone,
			AdminName:      req.AdminName,
			AdminEmail:     req.AdminEmail,
			AdminPassword:  req.AdminPassword,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, sess)
	}
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
func NewLoginHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" {
			badRequest(w, "email and password are required")
			return
		}

		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, sess)
	}
}

// NewCompanyHandler returns an http.HandlerFunc for GET /api/v1/company.
func NewCompanyHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		c, err := svc.GetCompany(r.Context(), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, c)
	}
}

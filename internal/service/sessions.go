package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/cache"
	"github.com/kiranshivaraju/timetrack/internal/metrics"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// Session is an issued credential together with the identity it represents.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Employee  *models.Employee `json:"employee"`
	Company   *models.Company  `json:"company,omitempty"`
}

type RegisterInput struct {
	CompanyName    string
	CompanyAddress models.Address
	CompanyPhone   string
	AdminName      string
	AdminEmail     string
	AdminPassword  string
}

// Register bootstraps a tenant: the company and its first admin are created
// in one transaction, and the admin is audited as the creator of itself.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name, err := requiredText("Company name", in.CompanyName)
	if err != nil {
		return nil, err
	}
	addr, err := validateAddress("Company address", in.CompanyAddress)
	if err != nil {
		return nil, err
	}
	phone, err := requiredText("Company phone", in.CompanyPhone)
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		ID:        uuid.New(),
		Name:      name,
		Address:   addr,
		Phone:     phone,
		CreatedAt: s.now(),
	}
	admin, err := s.newEmployee(company.ID, CreateEmployeeInput{
		Email:    in.AdminEmail,
		Name:     in.AdminName,
		Password: in.AdminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	actor := models.Principal{EmployeeID: admin.ID, CompanyID: company.ID, Role: admin.Role}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		if err := q.CreateCompany(ctx, company); err != nil {
			return err
		}
		if err := q.CreateEmployee(ctx, admin); err != nil {
			return employeeWriteErr(admin.Email, err)
		}
		return s.created(ctx, q, actor, audit.EntityEmployee, admin.ID, admin)
	})
	if err != nil {
		return nil, translate("register company", err)
	}
	s.log.InfoContext(ctx, "company registered", "company_id", company.ID, "admin_id", admin.ID)

	session, err := s.issue(admin)
	if err != nil {
		return nil, err
	}
	session.Company = company
	return session, nil
}

// Login exchanges an email and password for a session token. Unknown emails,
// wrong passwords and archived accounts all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredential
	}
	if s.lockedOut(ctx, email) {
		s.log.WarnContext(ctx, "login rejected: account locked out", "email", email)
		return nil, ErrTooManyAttempts
	}

	e, err := s.store.GetEmployeeByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, translate("login", err)
	}
	if e == nil || e.Archived() || !s.hasher.Verify(password, e.PasswordHash) {
		s.loginFailed(ctx, email)
		return nil, ErrInvalidCredential
	}

	s.loginSucceeded(ctx, email)
	return s.issue(e)
}

func (s *Service) issue(e *models.Employee) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(e.ID, e.CompanyID, e.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Employee: e}, nil
}

// lockedOut fails open: a counter store outage never blocks logins.
func (s *Service) lockedOut(ctx context.Context, email string) bool {
	if s.counters == nil || s.lockout.MaxFailures <= 0 {
		return false
	}
	n, err := s.counters.Count(ctx, cache.LoginFailuresKey(email))
	if err != nil {
		s.log.WarnContext(ctx, "login lockout check failed", "error", err)
		return false
	}
	return n >= int64(s.lockout.MaxFailures)
}

func (s *Service) loginFailed(ctx context.Context, email string) {
	metrics.LoginFailuresTotal.Inc()
	s.log.WarnContext(ctx, "login failed", "email", email)
	if s.counters == nil || s.lockout.MaxFailures <= 0 {
		return
	}
	if _, err := s.counters.IncrWithExpiry(ctx, cache.LoginFailuresKey(email), s.lockout.Window); err != nil {
		s.log.WarnContext(ctx, "record login failure", "error", err)
	}
}

func (s *Service) loginSucceeded(ctx context.Context, email string) {
	if s.counters == nil {
		return
	}
	if err := s.counters.Delete(ctx, cache.LoginFailuresKey(email)); err != nil {
		s.log.WarnContext(ctx, "reset login failures", "error", err)
	}
}

// GetCompany returns the caller's own company.
func (s *Service) GetCompany(ctx context.Context, p models.Principal) (*models.Company, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, translate("get company", err)
	}
	if err := access.RequireTenant(p, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// Package service implements the tenant-scoped domain operations. Every
// operation takes the calling principal explicitly, runs it through the
// access guard, and performs each mutation together with its audit record in
// a single store transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/auth"
	"github.com/kiranshivaraju/timetrack/internal/cache"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// LockoutPolicy bounds consecutive failed logins per email address.
type LockoutPolicy struct {
	MaxFailures int
	Window      time.Duration
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Store    store.Store
	Recorder *audit.Recorder
	Tokens   *auth.TokenService
	Hasher   *auth.PasswordHasher
	// Counters backs login lockout. Nil disables lockout.
	Counters cache.Cache
	Lockout  LockoutPolicy
	Logger   *slog.Logger
}

// Service implements every domain operation.
type Service struct {
	store    store.Store
	recorder *audit.Recorder
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	counters cache.Cache
	lockout  LockoutPolicy
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := d.Recorder
	if rec == nil {
		rec = audit.NewRecorder(log)
	}
	return &Service{
		store:    d.Store,
		recorder: rec,
		tokens:   d.Tokens,
		hasher:   d.Hasher,
		counters: d.Counters,
		lockout:  d.Lockout,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// authorize authenticates p and checks it holds at least role.
func (s *Service) authorize(ctx context.Context, p models.Principal, role models.Role) (models.Principal, error) {
	p, err := access.RequireAuthenticated(&p)
	if err != nil {
		return p, err
	}
	if p.Role == models.RoleAdmin {
		if p, err = s.currentRole(ctx, p); err != nil {
			return p, err
		}
	}
	if err := access.RequireRole(p, role); err != nil {
		s.log.WarnContext(ctx, "access denied",
			"employee_id", p.EmployeeID,
			"company_id", p.CompanyID,
			"role", p.Role,
			"required_role", role,
		)
		return p, err
	}
	return p, nil
}

// currentRole replaces an ADMIN claim with the role the employee holds now.
// Tokens outlive role changes, so a demoted or archived admin acts as an
// employee until the token expires.
func (s *Service) currentRole(ctx context.Context, p models.Principal) (models.Principal, error) {
	e, err := s.store.GetEmployee(ctx, p.EmployeeID)
	if errors.Is(err, store.ErrNotFound) {
		return p, ErrUnauthenticated
	}
	if err != nil {
		return p, fmt.Errorf("load principal: %w", err)
	}
	if e.CompanyID != p.CompanyID {
		return p, ErrUnauthenticated
	}
	p.Role = e.Role
	if e.Archived() {
		p.Role = models.RoleEmployee
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, q store.Queries, ev audit.Event) error {
	_, err := s.recorder.Record(ctx, q, ev)
	return err
}

// created records a CREATED event for v.
func (s *Service) created(ctx context.Context, q store.Queries, p models.Principal, entity audit.EntityType, id uuid.UUID, v any) error {
	after, err := audit.Snapshot(v)
	if err != nil {
		return err
	}
	return s.record(ctx, q, audit.Event{Actor: p, Entity: entity, Verb: audit.VerbCreated, EntityID: id, After: after})
}

// updated records an UPDATED event with the given before snapshot and v as after.
func (s *Service) updated(ctx context.Context, q store.Queries, p models.Principal, entity audit.EntityType, id uuid.UUID, before map[string]any, v any) error {
	after, err := audit.Snapshot(v)
	if err != nil {
		return err
	}
	return s.record(ctx, q, audit.Event{Actor: p, Entity: entity, Verb: audit.VerbUpdated, EntityID: id, Before: before, After: after})
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type AuditQuery struct {
	EntityType string
	EntityID   *uuid.UUID
	Action     string
	Since      time.Time
	Limit      int
	Offset     int
}

// AuditPage is one page of audit entries, newest first.
type AuditPage struct {
	Entries []*models.AuditLog
	Limit   int
	Offset  int
	HasMore bool
}

// ListAuditLogs reads the caller's tenant audit trail. Admin only.
func (s *Service) ListAuditLogs(ctx context.Context, p models.Principal, query AuditQuery) (*AuditPage, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if query.EntityType != "" && !validEntityType(query.EntityType) {
		return nil, validationf("Unknown entity type %q.", query.EntityType)
	}
	if query.Action != "" && !audit.IsAction(query.Action) {
		return nil, validationf("Unknown action %q.", query.Action)
	}
	if query.Offset < 0 {
		return nil, validationf("Offset must not be negative.")
	}

	limit := store.NormalizeLimit(query.Limit, store.DefaultAuditLimit, store.MaxAuditLimit)
	entries, hasMore, err := s.store.ListAuditLogs(ctx, store.AuditFilter{
		CompanyID:  p.CompanyID,
		EntityType: query.EntityType,
		EntityID:   query.EntityID,
		Action:     query.Action,
		Since:      query.Since,
		Limit:      limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, translate("list audit logs", err)
	}
	return &AuditPage{Entries: entries, Limit: limit, Offset: query.Offset, HasMore: hasMore}, nil
}

func validEntityType(s string) bool {
	switch audit.EntityType(s) {
	case audit.EntityEmployee, audit.EntityCustomer, audit.EntityLocation, audit.EntityJob:
		return true
	}
	return false
}

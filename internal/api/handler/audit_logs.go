package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// AuditService defines the audit trail read the handler depends on.
type AuditService interface {
	ListAuditLogs(ctx context.Context, p models.Principal, query service.AuditQuery) (*service.AuditPage, error)
}

// NewListAuditLogsHandler returns an http.HandlerFunc for GET /api/v1/admin/audit-logs.
func NewListAuditLogsHandler(svc AuditService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := newQueryParser(r)
		query := service.AuditQuery{
			EntityType: q.get("entityType"),
			EntityID:   q.uuidParam("entityId"),
			Action:     q.get("action"),
			Since:      q.timeParam("since"),
			Limit:      q.intParam("limit"),
			Offset:     q.intParam("offset"),
		}
		if q.err != nil {
			badRequest(w, q.err.Error())
			return
		}

		page, err := svc.ListAuditLogs(r.Context(), p, query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entries := page.Entries
		if entries == nil {
			entries = []*models.AuditLog{}
		}
		response.Collection(w, entries, response.PaginationMeta{
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		})
	}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// TimeEntryService defines the time entry operations the handlers depend on.
type TimeEntryService interface {
	ListTimeEntries(ctx context.Context, p models.Principal, query service.TimeEntryQuery) ([]*models.TimeEntry, error)
	GetTimeEntry(ctx context.Context, p models.Principal, id uuid.UUID) (*models.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, p models.Principal, in service.CreateTimeEntryInput) (*models.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, p models.Principal, id uuid.UUID, in service.UpdateTimeEntryInput) (*models.TimeEntry, error)
}

const timeEntryIDParam = "entryID"

// TimeEntryHandlers groups the /api/v1/time-entries handlers. Entries are not
// soft-deletable, so there is no archive or restore.
type TimeEntryHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
}

func NewTimeEntryHandlers(svc TimeEntryService) TimeEntryHandlers {
	return TimeEntryHandlers{
		List:   newListTimeEntriesHandler(svc),
		Get:    newByIDHandler(timeEntryIDParam, svc.GetTimeEntry),
		Create: newCreateTimeEntryHandler(svc),
		Update: newUpdateTimeEntryHandler(svc),
	}
}

func newListTimeEntriesHandler(svc TimeEntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := newQueryParser(r)
		query := service.TimeEntryQuery{
			EmployeeID: q.uuidParam("employeeId"),
			JobID:      q.uuidParam("jobId"),
			From:       q.timeParam("from"),
			To:         q.timeParam("to"),
			Limit:      q.intParam("limit"),
			Offset:     q.intParam("offset"),
		}
		if q.err != nil {
			badRequest(w, q.err.Error())
			return
		}

		entries, err := svc.ListTimeEntries(r.Context(), p, query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.List(w, entries)
	}
}

func newCreateTimeEntryHandler(svc TimeEntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			EmployeeID *uuid.UUID `json:"employee_id"`
			JobID      uuid.UUID  `json:"job_id"`
			Start      string     `json:"start"`
			End        string     `json:"end"`
			Note       *string    `json:"note"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.JobID == uuid.Nil {
			badRequest(w, "job_id is required")
			return
		}
		start, err := parseTimestamp("start", req.Start)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		end, err := parseTimestamp("end", req.End)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		entry, err := svc.CreateTimeEntry(r.Context(), p, service.CreateTimeEntryInput{
			EmployeeID: req.EmployeeID,
			JobID:      req.JobID,
			Start:      start,
			End:        end,
			Note:       req.Note,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, entry)
	}
}

func newUpdateTimeEntryHandler(svc TimeEntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, timeEntryIDParam)
		if !ok {
			return
		}

		var req struct {
			JobID *uuid.UUID `json:"job_id"`
			Start *string    `json:"start"`
			End   *string    `json:"end"`
			Note  *string    `json:"note"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		in := service.UpdateTimeEntryInput{JobID: req.JobID, Note: req.Note}
		for _, f := range []struct {
			name string
			raw  *string
			dst  **time.Time
		}{
			{"start", req.Start, &in.Start},
			{"end", req.End, &in.End},
		} {
			if f.raw == nil {
				continue
			}
			t, err := parseTimestamp(f.name, *f.raw)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			*f.dst = &t
		}

		entry, err := svc.UpdateTimeEntry(r.Context(), p, id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, entry)
	}
}

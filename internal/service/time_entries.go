package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type CreateTimeEntryInput struct {
	// EmployeeID defaults to the caller. Only admins may log time for others.
	EmployeeID *uuid.UUID
	JobID      uuid.UUID
	Start      time.Time
	End        time.Time
	Note       *string
}

type UpdateTimeEntryInput struct {
	JobID *uuid.UUID
	Start *time.Time
	End   *time.Time
	Note  *string
}

func (in UpdateTimeEntryInput) empty() bool {
	return in.JobID == nil && in.Start == nil && in.End == nil && in.Note == nil
}

type TimeEntryQuery struct {
	EmployeeID *uuid.UUID
	JobID      *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// ListTimeEntries lists entries in the caller's tenant. Non-admins only ever
// see their own entries, whatever employee filter they pass.
func (s *Service) ListTimeEntries(ctx context.Context, p models.Principal, query TimeEntryQuery) ([]*models.TimeEntry, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return nil, validationf("'to' must not be before 'from'.")
	}
	entries, err := s.store.ListTimeEntries(ctx, store.TimeEntryFilter{
		CompanyID:  p.CompanyID,
		EmployeeID: access.ScopeTimeEntries(p, query.EmployeeID),
		JobID:      query.JobID,
		From:       query.From,
		To:         query.To,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, translate("list time entries", err)
	}
	return entries, nil
}

func (s *Service) GetTimeEntry(ctx context.Context, p models.Principal, id uuid.UUID) (*models.TimeEntry, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	e, err := loadTimeEntry(ctx, s.store, p, id)
	if err != nil {
		return nil, translate("get time entry", err)
	}
	return e, nil
}

func (s *Service) CreateTimeEntry(ctx context.Context, p models.Principal, in CreateTimeEntryInput) (*models.TimeEntry, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}

	employeeID := p.EmployeeID
	if in.EmployeeID != nil && *in.EmployeeID != p.EmployeeID {
		if err := access.RequireSelfOrAdmin(p, *in.EmployeeID); err != nil {
			return nil, err
		}
		employeeID = *in.EmployeeID
	}
	note, err := optionalText("Note", in.Note, maxNoteLen)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.TimeEntry{
		ID:         uuid.New(),
		CompanyID:  p.CompanyID,
		EmployeeID: employeeID,
		JobID:      in.JobID,
		Note:       note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := setSpan(e, in.Start, in.End); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		owner, err := q.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if err := access.RequireEmployee(p, owner); err != nil {
			return err
		}
		if owner.Archived() {
			return validationf("Employee is archived.")
		}
		if err := checkActiveJob(ctx, q, p, e.JobID); err != nil {
			return err
		}
		return q.CreateTimeEntry(ctx, e)
	})
	if err != nil {
		return nil, translate("create time entry", err)
	}
	return e, nil
}

// UpdateTimeEntry edits an entry. The author and admins may edit it.
func (s *Service) UpdateTimeEntry(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateTimeEntryInput) (*models.TimeEntry, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, validationf("No fields to update.")
	}

	var out *models.TimeEntry
	err = s.store.InTx(ctx, func(q store.Queries) error {
		e, err := loadTimeEntry(ctx, q, p, id)
		if err != nil {
			return err
		}
		if err := access.RequireSelfOrAdmin(p, e.EmployeeID); err != nil {
			return err
		}

		if in.JobID != nil && *in.JobID != e.JobID {
			if err := checkActiveJob(ctx, q, p, *in.JobID); err != nil {
				return err
			}
			e.JobID = *in.JobID
		}
		start, end := e.Start, e.End
		if in.Start != nil {
			start = *in.Start
		}
		if in.End != nil {
			end = *in.End
		}
		if err := setSpan(e, start, end); err != nil {
			return err
		}
		if in.Note != nil {
			if e.Note, err = optionalText("Note", in.Note, maxNoteLen); err != nil {
				return err
			}
		}
		e.UpdatedAt = s.now()

		if err := q.UpdateTimeEntry(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, translate("update time entry", err)
	}
	return out, nil
}

// setSpan validates and stores the interval, deriving DurationMs.
func setSpan(e *models.TimeEntry, start, end time.Time) error {
	if start.IsZero() {
		return validationf("Start is required.")
	}
	if end.IsZero() {
		return validationf("End is required.")
	}
	if end.Before(start) {
		return validationf("End must not be before start.")
	}
	e.Start = start.UTC()
	e.End = end.UTC()
	e.DurationMs = end.Sub(start).Milliseconds()
	return nil
}

// checkActiveJob requires an active job of the caller's tenant whose customer
// and location are active too. Archiving a parent does not cascade to its
// jobs, so the parents are checked here.
func checkActiveJob(ctx context.Context, q store.Queries, p models.Principal, jobID uuid.UUID) error {
	j, err := loadJob(ctx, q, p, jobID)
	if err != nil {
		return err
	}
	if j.Archived() {
		return validationf("Job is archived.")
	}
	customer, err := q.GetCustomer(ctx, j.CustomerID)
	if err != nil {
		return err
	}
	if customer.Archived() {
		return validationf("The job's customer is archived.")
	}
	loc, err := q.GetLocation(ctx, j.LocationID)
	if err != nil {
		return err
	}
	if loc.Archived() {
		return validationf("The job's location is archived.")
	}
	return nil
}

func loadTimeEntry(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (*models.TimeEntry, error) {
	e, err := q.GetTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireTimeEntry(p, e); err != nil {
		return nil, err
	}
	return e, nil
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/softdelete"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type CreateJobInput struct {
	CustomerID uuid.UUID
	LocationID uuid.UUID
	Name       string
	Note       *string
}

// UpdateJobInput is a partial update. Changing either reference re-validates
// the customer/location pair.
type UpdateJobInput struct {
	CustomerID *uuid.UUID
	LocationID *uuid.UUID
	Name       *string
	Note       *string
}

func (in UpdateJobInput) empty() bool {
	return in.CustomerID == nil && in.LocationID == nil && in.Name == nil && in.Note == nil
}

type JobQuery struct {
	CustomerID      *uuid.UUID
	IncludeArchived bool
}

// ListJobs lists the tenant's jobs. Any employee may list; only admins may
// include archived jobs.
func (s *Service) ListJobs(ctx context.Context, p models.Principal, query JobQuery) ([]*models.Job, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, store.JobFilter{
		CompanyID:       p.CompanyID,
		CustomerID:      query.CustomerID,
		IncludeArchived: softdelete.IncludeArchived(p, query.IncludeArchived),
	})
	if err != nil {
		return nil, translate("list jobs", err)
	}
	return jobs, nil
}

// GetJob returns one job. Archived jobs are visible to admins only.
func (s *Service) GetJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	j, err := loadJob(ctx, s.store, p, id)
	if err != nil {
		return nil, translate("get job", err)
	}
	if !softdelete.Visible(j, p.Role.IsAdmin()) {
		return nil, ErrNotFound
	}
	return j, nil
}

func (s *Service) CreateJob(ctx context.Context, p models.Principal, in CreateJobInput) (*models.Job, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	name, err := requiredText("Name", in.Name)
	if err != nil {
		return nil, err
	}
	note, err := optionalText("Note", in.Note, maxNoteLen)
	if err != nil {
		return nil, err
	}

	now := s.now()
	j := &models.Job{
		ID:         uuid.New(),
		CompanyID:  p.CompanyID,
		CustomerID: in.CustomerID,
		LocationID: in.LocationID,
		Name:       name,
		Note:       note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		if err := checkJobRefs(ctx, q, p, j.CustomerID, j.LocationID); err != nil {
			return err
		}
		if err := q.CreateJob(ctx, j); err != nil {
			return err
		}
		return s.created(ctx, q, p, audit.EntityJob, j.ID, j)
	})
	if err != nil {
		return nil, translate("create job", err)
	}
	return j, nil
}

func (s *Service) UpdateJob(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateJobInput) (*models.Job, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, validationf("No fields to update.")
	}

	var out *models.Job
	err = s.store.InTx(ctx, func(q store.Queries) error {
		j, err := loadJob(ctx, q, p, id)
		if err != nil {
			return err
		}
		if j.Archived() {
			return validationf("Restore the job before editing it.")
		}
		before, err := audit.Snapshot(j)
		if err != nil {
			return err
		}

		if in.Name != nil {
			if j.Name, err = requiredText("Name", *in.Name); err != nil {
				return err
			}
		}
		if in.Note != nil {
			if j.Note, err = optionalText("Note", in.Note, maxNoteLen); err != nil {
				return err
			}
		}
		if in.CustomerID != nil || in.LocationID != nil {
			if in.CustomerID != nil {
				j.CustomerID = *in.CustomerID
			}
			if in.LocationID != nil {
				j.LocationID = *in.LocationID
			}
			if err := checkJobRefs(ctx, q, p, j.CustomerID, j.LocationID); err != nil {
				return err
			}
		}
		j.UpdatedAt = s.now()

		if err := q.UpdateJob(ctx, j); err != nil {
			return err
		}
		out = j
		return s.updated(ctx, q, p, audit.EntityJob, j.ID, before, j)
	})
	if err != nil {
		return nil, translate("update job", err)
	}
	return out, nil
}

// checkJobRefs resolves a customer/location pair supplied by the caller. Both
// must be active rows of the caller's tenant, and the location must belong to
// the customer.
func checkJobRefs(ctx context.Context, q store.Queries, p models.Principal, customerID, locationID uuid.UUID) error {
	customer, err := q.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	loc, err := q.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	owner := customer
	if loc.CustomerID != customer.ID {
		if owner, err = q.GetCustomer(ctx, loc.CustomerID); err != nil {
			return err
		}
	}
	if err := access.RequireJobRefs(p, customer, loc, owner); err != nil {
		return err
	}
	if customer.Archived() {
		return validationf("Customer is archived.")
	}
	if loc.Archived() {
		return validationf("Location is archived.")
	}
	return nil
}

func (s *Service) ArchiveJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error) {
	return transition(ctx, s, p, jobLifecycle, id, softdelete.StateArchived)
}

func (s *Service) RestoreJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error) {
	return transition(ctx, s, p, jobLifecycle, id, softdelete.StateActive)
}

var jobLifecycle = lifecycle[*models.Job]{
	entity: audit.EntityJob,
	load:   loadJob,
	save: func(ctx context.Context, q store.Queries, j *models.Job) error {
		return q.UpdateJob(ctx, j)
	},
}

func loadJob(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (*models.Job, error) {
	j, err := q.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireJob(p, j); err != nil {
		return nil, err
	}
	return j, nil
}

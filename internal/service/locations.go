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

type CreateLocationInput struct {
	Name      *string
	Address   models.Address
	Latitude  *float64
	Longitude *float64
	Tags      []string
}

// UpdateLocationInput is a partial update. Coordinates are replaced as a pair;
// ClearCoordinates removes them.
type UpdateLocationInput struct {
	Name             *string
	Address          *models.Address
	Latitude         *float64
	Longitude        *float64
	ClearCoordinates bool
	Tags             *[]string
}

func (in UpdateLocationInput) empty() bool {
	return in.Name == nil && in.Address == nil && in.Latitude == nil && in.Longitude == nil &&
		!in.ClearCoordinates && in.Tags == nil
}

// ListLocations lists the locations of one customer in the caller's tenant.
func (s *Service) ListLocations(ctx context.Context, p models.Principal, customerID uuid.UUID, includeArchived bool) ([]*models.JobLocation, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if _, err := loadCustomer(ctx, s.store, p, customerID); err != nil {
		return nil, translate("list locations", err)
	}
	locations, err := s.store.ListLocations(ctx, store.LocationFilter{
		CustomerID:      customerID,
		IncludeArchived: softdelete.IncludeArchived(p, includeArchived),
	})
	if err != nil {
		return nil, translate("list locations", err)
	}
	return locations, nil
}

func (s *Service) GetLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	l, err := loadLocation(ctx, s.store, p, id)
	if err != nil {
		return nil, translate("get location", err)
	}
	return l, nil
}

func (s *Service) CreateLocation(ctx context.Context, p models.Principal, customerID uuid.UUID, in CreateLocationInput) (*models.JobLocation, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	l := &models.JobLocation{
		ID:         uuid.New(),
		CustomerID: customerID,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tags := in.Tags
	err = applyLocationUpdate(l, UpdateLocationInput{
		Name:      in.Name,
		Address:   &in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Tags:      &tags,
	})
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		c, err := loadCustomer(ctx, q, p, customerID)
		if err != nil {
			return err
		}
		if c.Archived() {
			return validationf("Customer is archived.")
		}
		if err := q.CreateLocation(ctx, l); err != nil {
			return err
		}
		return s.created(ctx, q, p, audit.EntityLocation, l.ID, l)
	})
	if err != nil {
		return nil, translate("create location", err)
	}
	return l, nil
}

func (s *Service) UpdateLocation(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateLocationInput) (*models.JobLocation, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, validationf("No fields to update.")
	}

	var out *models.JobLocation
	err = s.store.InTx(ctx, func(q store.Queries) error {
		l, err := loadLocation(ctx, q, p, id)
		if err != nil {
			return err
		}
		if l.Archived() {
			return validationf("Restore the location before editing it.")
		}
		before, err := audit.Snapshot(l)
		if err != nil {
			return err
		}

		if err := applyLocationUpdate(l, in); err != nil {
			return err
		}
		l.UpdatedAt = s.now()

		if err := q.UpdateLocation(ctx, l); err != nil {
			return err
		}
		out = l
		return s.updated(ctx, q, p, audit.EntityLocation, l.ID, before, l)
	})
	if err != nil {
		return nil, translate("update location", err)
	}
	return out, nil
}

func applyLocationUpdate(l *models.JobLocation, in UpdateLocationInput) error {
	if in.Name != nil {
		name, err := optionalText("Name", in.Name, maxNameLen)
		if err != nil {
			return err
		}
		l.Name = name
	}
	if in.Address != nil {
		addr, err := validateAddress("Address", *in.Address)
		if err != nil {
			return err
		}
		l.Address = addr
	}
	switch {
	case in.ClearCoordinates:
		l.Latitude, l.Longitude = nil, nil
	case in.Latitude != nil || in.Longitude != nil:
		if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
			return err
		}
		l.Latitude, l.Longitude = in.Latitude, in.Longitude
	}
	if in.Tags != nil {
		l.Tags = normalizeTags(*in.Tags)
	}
	return nil
}

func (s *Service) ArchiveLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error) {
	return transition(ctx, s, p, locationLifecycle, id, softdelete.StateArchived)
}

func (s *Service) RestoreLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error) {
	return transition(ctx, s, p, locationLifecycle, id, softdelete.StateActive)
}

var locationLifecycle = lifecycle[*models.JobLocation]{
	entity: audit.EntityLocation,
	load:   loadLocation,
	save: func(ctx context.Context, q store.Queries, l *models.JobLocation) error {
		return q.UpdateLocation(ctx, l)
	},
}

// loadLocation resolves a location and checks its tenant through the parent customer.
func loadLocation(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (*models.JobLocation, error) {
	l, err := q.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := q.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireLocation(p, l, parent); err != nil {
		return nil, err
	}
	return l, nil
}

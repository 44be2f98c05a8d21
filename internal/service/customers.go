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

type CreateCustomerInput struct {
	Name            string
	Email           *string
	Phone           *string
	BusinessAddress models.Address
	MailingAddress  *models.Address
}

// UpdateCustomerInput is a partial update. A pointer to an empty string
// clears an optional text field; ClearMailingAddress drops the mailing address.
type UpdateCustomerInput struct {
	Name                *string
	Email               *string
	Phone               *string
	BusinessAddress     *models.Address
	MailingAddress      *models.Address
	ClearMailingAddress bool
}

func (in UpdateCustomerInput) empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil &&
		in.BusinessAddress == nil && in.MailingAddress == nil && !in.ClearMailingAddress
}

func (s *Service) ListCustomers(ctx context.Context, p models.Principal, includeArchived bool) ([]*models.Customer, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	customers, err := s.store.ListCustomers(ctx, store.CustomerFilter{
		CompanyID:       p.CompanyID,
		IncludeArchived: softdelete.IncludeArchived(p, includeArchived),
	})
	if err != nil {
		return nil, translate("list customers", err)
	}
	return customers, nil
}

func (s *Service) GetCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	c, err := loadCustomer(ctx, s.store, p, id)
	if err != nil {
		return nil, translate("get customer", err)
	}
	return c, nil
}

func (s *Service) CreateCustomer(ctx context.Context, p models.Principal, in CreateCustomerInput) (*models.Customer, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Customer{
		ID:        uuid.New(),
		CompanyID: p.CompanyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = applyCustomerUpdate(c, UpdateCustomerInput{
		Name:            &in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		BusinessAddress: &in.BusinessAddress,
		MailingAddress:  in.MailingAddress,
	})
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		if err := q.CreateCustomer(ctx, c); err != nil {
			return err
		}
		return s.created(ctx, q, p, audit.EntityCustomer, c.ID, c)
	})
	if err != nil {
		return nil, translate("create customer", err)
	}
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateCustomerInput) (*models.Customer, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, validationf("No fields to update.")
	}

	var out *models.Customer
	err = s.store.InTx(ctx, func(q store.Queries) error {
		c, err := loadCustomer(ctx, q, p, id)
		if err != nil {
			return err
		}
		if c.Archived() {
			return validationf("Restore the customer before editing it.")
		}
		before, err := audit.Snapshot(c)
		if err != nil {
			return err
		}

		if err := applyCustomerUpdate(c, in); err != nil {
			return err
		}
		c.UpdatedAt = s.now()

		if err := q.UpdateCustomer(ctx, c); err != nil {
			return err
		}
		out = c
		return s.updated(ctx, q, p, audit.EntityCustomer, c.ID, before, c)
	})
	if err != nil {
		return nil, translate("update customer", err)
	}
	return out, nil
}

func applyCustomerUpdate(c *models.Customer, in UpdateCustomerInput) error {
	if in.Name != nil {
		name, err := requiredText("Name", *in.Name)
		if err != nil {
			return err
		}
		c.Name = name
	}
	if in.Email != nil {
		email, err := optionalText("Email", in.Email, maxNameLen)
		if err != nil {
			return err
		}
		if email != nil {
			normalized, err := normalizeEmail(*email)
			if err != nil {
				return err
			}
			email = &normalized
		}
		c.Email = email
	}
	if in.Phone != nil {
		phone, err := optionalText("Phone", in.Phone, maxNameLen)
		if err != nil {
			return err
		}
		c.Phone = phone
	}
	if in.BusinessAddress != nil {
		addr, err := validateAddress("Business address", *in.BusinessAddress)
		if err != nil {
			return err
		}
		c.BusinessAddress = addr
	}
	switch {
	case in.ClearMailingAddress:
		c.MailingAddress = nil
	case in.MailingAddress != nil:
		addr, err := validateAddress("Mailing address", *in.MailingAddress)
		if err != nil {
			return err
		}
		c.MailingAddress = &addr
	}
	return nil
}

func (s *Service) ArchiveCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error) {
	return transition(ctx, s, p, customerLifecycle, id, softdelete.StateArchived)
}

func (s *Service) RestoreCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error) {
	return transition(ctx, s, p, customerLifecycle, id, softdelete.StateActive)
}

var customerLifecycle = lifecycle[*models.Customer]{
	entity: audit.EntityCustomer,
	load:   loadCustomer,
	save: func(ctx context.Context, q store.Queries, c *models.Customer) error {
		return q.UpdateCustomer(ctx, c)
	},
}

func loadCustomer(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (*models.Customer, error) {
	c, err := q.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireCustomer(p, c); err != nil {
		return nil, err
	}
	return c, nil
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/auth"
	"github.com/kiranshivaraju/timetrack/internal/softdelete"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type CreateEmployeeInput struct {
	Email    string
	Name     string
	Password string
	// Role defaults to EMPLOYEE.
	Role models.Role
}

// UpdateEmployeeInput is a partial update; nil fields are left unchanged.
type UpdateEmployeeInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *models.Role
}

func (in UpdateEmployeeInput) empty() bool {
	return in.Email == nil && in.Name == nil && in.Password == nil && in.Role == nil
}

// Me returns the caller's own employee record.
func (s *Service) Me(ctx context.Context, p models.Principal) (*models.Employee, error) {
	p, err := s.authorize(ctx, p, models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	e, err := s.store.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		return nil, translate("get employee", err)
	}
	if err := access.RequireEmployee(p, e); err != nil {
		return nil, err
	}
	if e.Archived() {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) ListEmployees(ctx context.Context, p models.Principal, includeArchived bool) ([]*models.Employee, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	employees, err := s.store.ListEmployees(ctx, store.EmployeeFilter{
		CompanyID:       p.CompanyID,
		IncludeArchived: softdelete.IncludeArchived(p, includeArchived),
	})
	if err != nil {
		return nil, translate("list employees", err)
	}
	return employees, nil
}

func (s *Service) GetEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	e, err := loadEmployee(ctx, s.store, p, id)
	if err != nil {
		return nil, translate("get employee", err)
	}
	return e, nil
}

func (s *Service) CreateEmployee(ctx context.Context, p models.Principal, in CreateEmployeeInput) (*models.Employee, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	e, err := s.newEmployee(p.CompanyID, in)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		if err := q.CreateEmployee(ctx, e); err != nil {
			return employeeWriteErr(e.Email, err)
		}
		return s.created(ctx, q, p, audit.EntityEmployee, e.ID, e)
	})
	if err != nil {
		return nil, translate("create employee", err)
	}
	s.log.InfoContext(ctx, "employee created", "employee_id", e.ID, "company_id", e.CompanyID, "role", e.Role)
	return e, nil
}

// newEmployee validates in and builds an unsaved, active employee.
func (s *Service) newEmployee(companyID uuid.UUID, in CreateEmployeeInput) (*models.Employee, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := requiredText("Name", in.Name)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, validationf("Role %q is not recognized.", in.Role)
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &models.Employee{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, p models.Principal, id uuid.UUID, in UpdateEmployeeInput) (*models.Employee, error) {
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, validationf("No fields to update.")
	}

	var out *models.Employee
	err = s.store.InTx(ctx, func(q store.Queries) error {
		e, err := loadEmployee(ctx, q, p, id)
		if err != nil {
			return err
		}
		if e.Archived() {
			return validationf("Restore the employee before editing it.")
		}
		before, err := audit.Snapshot(e)
		if err != nil {
			return err
		}

		if err := s.applyEmployeeUpdate(p, e, in); err != nil {
			return err
		}
		e.UpdatedAt = s.now()

		if err := q.UpdateEmployee(ctx, e); err != nil {
			return employeeWriteErr(e.Email, err)
		}
		out = e
		return s.updated(ctx, q, p, audit.EntityEmployee, e.ID, before, e)
	})
	if err != nil {
		return nil, translate("update employee", err)
	}
	return out, nil
}

func (s *Service) applyEmployeeUpdate(p models.Principal, e *models.Employee, in UpdateEmployeeInput) error {
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		e.Email = email
	}
	if in.Name != nil {
		name, err := requiredText("Name", *in.Name)
		if err != nil {
			return err
		}
		e.Name = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return validationf("Role %q is not recognized.", *in.Role)
		}
		if e.ID == p.EmployeeID && *in.Role != e.Role {
			return validationf("You cannot change your own role.")
		}
		e.Role = *in.Role
	}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return err
		}
		e.PasswordHash = hash
	}
	return nil
}

// ArchiveEmployee soft-deletes an employee. Archived employees cannot log in.
func (s *Service) ArchiveEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error) {
	return transition(ctx, s, p, employeeLifecycle, id, softdelete.StateArchived)
}

func (s *Service) RestoreEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error) {
	return transition(ctx, s, p, employeeLifecycle, id, softdelete.StateActive)
}

var employeeLifecycle = lifecycle[*models.Employee]{
	entity: audit.EntityEmployee,
	load:   loadEmployee,
	save: func(ctx context.Context, q store.Queries, e *models.Employee) error {
		return q.UpdateEmployee(ctx, e)
	},
	check: func(p models.Principal, e *models.Employee, target softdelete.State) error {
		if target == softdelete.StateArchived && e.ID == p.EmployeeID {
			return validationf("You cannot archive your own account.")
		}
		return nil
	},
}

func loadEmployee(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (*models.Employee, error) {
	e, err := q.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireEmployee(p, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) hashPassword(plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		return "", validationf("Password must be at least %d characters.", auth.MinPasswordLen)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return "", validationf("Password is too long.")
	case err != nil:
		return "", err
	}
	return hash, nil
}

func employeeWriteErr(email string, err error) error {
	if errors.Is(err, store.ErrDuplicateKey) {
		return conflictf("Email %s is already registered.", email)
	}
	return err
}

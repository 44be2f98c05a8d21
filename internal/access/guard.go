// Package access decides whether an authenticated principal may perform an
// operation. Every function is a pure predicate over the principal and the
// rows already loaded by the caller.
//
// Cross-tenant access is reported as ErrNotFound rather than ErrForbidden so
// that callers cannot probe for the existence of another tenant's rows.
package access

import (
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrNotFound        = errors.New("resource not found")

	// ErrLocationCustomerMismatch means a job references a location owned by a
	// different customer than the one supplied.
	ErrLocationCustomerMismatch = errors.New("Location does not belong to this customer.")
)

// RequireAuthenticated is the first gate on every protected operation.
func RequireAuthenticated(p *models.Principal) (models.Principal, error) {
	if p == nil || p.IsZero() || !p.Role.Valid() {
		return models.Principal{}, ErrUnauthenticated
	}
	return *p, nil
}

// RequireRole fails with ErrForbidden unless p holds at least role.
func RequireRole(p models.Principal, role models.Role) error {
	switch role {
	case models.RoleEmployee:
		if p.Role.Valid() {
			return nil
		}
	case models.RoleAdmin:
		if p.Role.IsAdmin() {
			return nil
		}
	}
	return ErrForbidden
}

// RequireAdmin is RequireRole(p, models.RoleAdmin).
func RequireAdmin(p models.Principal) error {
	return RequireRole(p, models.RoleAdmin)
}

// RequireTenant fails with ErrNotFound when companyID is not the principal's.
func RequireTenant(p models.Principal, companyID uuid.UUID) error {
	if companyID == uuid.Nil || companyID != p.CompanyID {
		return ErrNotFound
	}
	return nil
}

// RequireEmployee checks that e belongs to the principal's tenant.
func RequireEmployee(p models.Principal, e *models.Employee) error {
	if e == nil {
		return ErrNotFound
	}
	return RequireTenant(p, e.CompanyID)
}

// RequireCustomer checks that c belongs to the principal's tenant.
func RequireCustomer(p models.Principal, c *models.Customer) error {
	if c == nil {
		return ErrNotFound
	}
	return RequireTenant(p, c.CompanyID)
}

// RequireLocation checks a location through its parent customer. parent must
// be the customer the location points at; any other customer is treated as a
// dangling reference.
func RequireLocation(p models.Principal, loc *models.JobLocation, parent *models.Customer) error {
	if loc == nil || parent == nil || loc.CustomerID != parent.ID {
		return ErrNotFound
	}
	return RequireCustomer(p, parent)
}

// RequireJob checks that j belongs to the principal's tenant.
func RequireJob(p models.Principal, j *models.Job) error {
	if j == nil {
		return ErrNotFound
	}
	return RequireTenant(p, j.CompanyID)
}

// RequireJobRefs validates the customer and location a job is written with.
// Both must resolve to the principal's tenant (ErrNotFound otherwise), and the
// location must be owned by that customer (ErrLocationCustomerMismatch).
// locationOwner is the customer the location actually points at.
func RequireJobRefs(p models.Principal, customer *models.Customer, loc *models.JobLocation, locationOwner *models.Customer) error {
	if err := RequireCustomer(p, customer); err != nil {
		return err
	}
	if err := RequireLocation(p, loc, locationOwner); err != nil {
		return err
	}
	if loc.CustomerID != customer.ID {
		return ErrLocationCustomerMismatch
	}
	return nil
}

// ScopeTimeEntries resolves the employee filter for time-entry listings.
// Non-admins always see only their own entries, whatever they asked for.
// Admins get the requested employee, or nil for the whole tenant.
func ScopeTimeEntries(p models.Principal, requested *uuid.UUID) *uuid.UUID {
	if !p.Role.IsAdmin() {
		self := p.EmployeeID
		return &self
	}
	if requested == nil || *requested == uuid.Nil {
		return nil
	}
	id := *requested
	return &id
}

// RequireTimeEntry checks tenant ownership and, for non-admins, authorship.
// Another employee's entry is invisible to a non-admin rather than forbidden.
func RequireTimeEntry(p models.Principal, e *models.TimeEntry) error {
	if e == nil {
		return ErrNotFound
	}
	if err := RequireTenant(p, e.CompanyID); err != nil {
		return err
	}
	if !p.Role.IsAdmin() && e.EmployeeID != p.EmployeeID {
		return ErrNotFound
	}
	return nil
}

// RequireSelfOrAdmin allows admins and the employee identified by employeeID.
func RequireSelfOrAdmin(p models.Principal, employeeID uuid.UUID) error {
	if p.Role.IsAdmin() || p.EmployeeID == employeeID {
		return nil
	}
	return ErrForbidden
}

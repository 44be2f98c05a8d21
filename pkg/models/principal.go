package models

import "github.com/google/uuid"

// Principal is the authenticated identity attached to a request. It is decoded
// from the session token and passed explicitly into every domain operation.
type Principal struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	Role       Role      `json:"role"`
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.EmployeeID == uuid.Nil || p.CompanyID == uuid.Nil
}

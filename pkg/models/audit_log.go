package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of a state-changing action. Rows are only
// ever inserted; CreatedAt and ID are assigned by the database.
type AuditLog struct {
	ID           int64          `db:"id"          json:"id"`
	CompanyID    uuid.UUID      `db:"company_id"  json:"company_id"`
	EmployeeID   uuid.UUID      `db:"employee_id" json:"employee_id"`
	EmployeeName string         `db:"-"           json:"employee_name,omitempty"`
	Action       string         `db:"action"      json:"action"`
	EntityType   string         `db:"entity_type" json:"entity_type"`
	EntityID     uuid.UUID      `db:"entity_id"   json:"entity_id"`
	Metadata     map[string]any `db:"metadata"    json:"metadata,omitempty"`
	CreatedAt    time.Time      `db:"created_at"  json:"created_at"`
}

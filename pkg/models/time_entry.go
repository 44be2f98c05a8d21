package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is a span of work logged by an employee against a job.
// DurationMs is always End minus Start, computed by the server.
type TimeEntry struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	CompanyID  uuid.UUID `db:"company_id"  json:"company_id"`
	EmployeeID uuid.UUID `db:"employee_id" json:"employee_id"`
	JobID      uuid.UUID `db:"job_id"      json:"job_id"`
	Start      time.Time `db:"start_at"    json:"start"`
	End        time.Time `db:"end_at"      json:"end"`
	DurationMs int64     `db:"duration_ms" json:"duration_ms"`
	Note       *string   `db:"note"        json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is work performed for a customer at one of that customer's locations.
type Job struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	CompanyID  uuid.UUID `db:"company_id"  json:"company_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	LocationID uuid.UUID `db:"location_id" json:"location_id"`
	Name       string    `db:"name"        json:"name"`
	Note       *string   `db:"note"        json:"note,omitempty"`
	SoftDelete
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// JobLocation is a site owned by a customer. It has no company column: its
// tenant is the company of its customer.
type JobLocation struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	Name       *string   `db:"name"        json:"name,omitempty"`
	Address    Address   `db:"address"     json:"address"`
	Latitude   *float64  `db:"latitude"    json:"latitude,omitempty"`
	Longitude  *float64  `db:"longitude"   json:"longitude,omitempty"`
	Tags       []string  `db:"tags"        json:"tags"`
	SoftDelete
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

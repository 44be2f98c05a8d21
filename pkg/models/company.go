package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant root. Every other entity belongs to exactly one company.
type Company struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Address   Address   `db:"address"    json:"address"`
	Phone     string    `db:"phone"      json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

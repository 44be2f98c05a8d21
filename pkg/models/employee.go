package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a worker who logs time. Email is unique across all companies
// because login identifies the account by email alone.
type Employee struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	CompanyID    uuid.UUID `db:"company_id"    json:"company_id"`
	Email        string    `db:"email"         json:"email"`
	Name         string    `db:"name"          json:"name"`
	Role         Role      `db:"role"          json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	SoftDelete
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

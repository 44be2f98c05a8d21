package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID              uuid.UUID `db:"id"               json:"id"`
	CompanyID       uuid.UUID `db:"company_id"       json:"company_id"`
	Name            string    `db:"name"             json:"name"`
	Email           *string   `db:"email"            json:"email,omitempty"`
	Phone           *string   `db:"phone"            json:"phone,omitempty"`
	BusinessAddress Address   `db:"business_address" json:"business_address"`
	MailingAddress  *Address  `db:"mailing_address"  json:"mailing_address,omitempty"`
	SoftDelete
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// SoftDelete holds the archival columns shared by Employee, Customer,
// JobLocation and Job. A nil DeletedAt means the row is active.
type SoftDelete struct {
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `db:"deleted_by" json:"deleted_by,omitempty"`
}

// Lifecycle exposes the archival columns of any embedding entity.
func (s *SoftDelete) Lifecycle() *SoftDelete {
	return s
}

// Archived reports whether the row is soft-deleted.
func (s SoftDelete) Archived() bool {
	return s.DeletedAt != nil
}

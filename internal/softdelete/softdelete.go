// Package softdelete implements the active/archived lifecycle shared by
// employees, customers, job locations and jobs.
package softdelete

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type State string

const (
	StateActive   State = "ACTIVE"
	StateArchived State = "ARCHIVED"
)

// Entity is any row carrying models.SoftDelete columns.
type Entity interface {
	Lifecycle() *models.SoftDelete
}

var validTransitions = map[State]State{
	StateActive:   StateArchived,
	StateArchived: StateActive,
}

// StateOf derives the lifecycle state from the archival columns.
func StateOf(s *models.SoftDelete) State {
	if s.DeletedAt != nil {
		return StateArchived
	}
	return StateActive
}

// CanTransition reports whether from -> to is a defined transition.
func CanTransition(from, to State) bool {
	return validTransitions[from] == to
}

// Archive moves e to ARCHIVED, stamping the actor and time. It returns false
// without touching e when e is already archived.
func Archive(e Entity, actor uuid.UUID, now time.Time) bool {
	s := e.Lifecycle()
	if !CanTransition(StateOf(s), StateArchived) {
		return false
	}
	at := now.UTC()
	by := actor
	s.DeletedAt = &at
	s.DeletedBy = &by
	return true
}

// Restore moves e back to ACTIVE, clearing both archival columns. It returns
// false without touching e when e is already active.
func Restore(e Entity) bool {
	s := e.Lifecycle()
	if !CanTransition(StateOf(s), StateActive) {
		return false
	}
	s.DeletedAt = nil
	s.DeletedBy = nil
	return true
}

// Apply runs the transition towards target.
func Apply(e Entity, target State, actor uuid.UUID, now time.Time) (bool, error) {
	switch target {
	case StateArchived:
		return Archive(e, actor, now), nil
	case StateActive:
		return Restore(e), nil
	}
	return false, fmt.Errorf("unknown lifecycle state %q", target)
}

// IncludeArchived resolves the archived-visibility policy for list reads:
// only admins may opt in to archived rows.
func IncludeArchived(p models.Principal, requested bool) bool {
	return requested && p.Role.IsAdmin()
}

// Visible reports whether e should appear in a read that may or may not
// include archived rows.
func Visible(e Entity, includeArchived bool) bool {
	return includeArchived || StateOf(e.Lifecycle()) == StateActive
}

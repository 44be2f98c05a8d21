// Package audit records the immutable trail of state-changing operations.
//
// The recorder never opens its own transaction: it writes through the handle
// of the enclosing mutation so the domain change and its audit row commit or
// roll back together.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/metrics"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type EntityType string

const (
	EntityEmployee EntityType = "EMPLOYEE"
	EntityCustomer EntityType = "CUSTOMER"
	EntityLocation EntityType = "LOCATION"
	EntityJob      EntityType = "JOB"
)

type Verb string

const (
	VerbCreated  Verb = "CREATED"
	VerbUpdated  Verb = "UPDATED"
	VerbDeleted  Verb = "DELETED"
	VerbRestored Verb = "RESTORED"
)

var (
	ErrUnknownAction   = errors.New("unknown audit action")
	ErrMissingSnapshot = errors.New("audit event is missing a required snapshot")
)

var entityTypes = map[EntityType]bool{
	EntityEmployee: true,
	EntityCustomer: true,
	EntityLocation: true,
	EntityJob:      true,
}

var verbs = map[Verb]bool{
	VerbCreated:  true,
	VerbUpdated:  true,
	VerbDeleted:  true,
	VerbRestored: true,
}

// Action builds the action tag, e.g. CUSTOMER_UPDATED.
func Action(entity EntityType, verb Verb) (string, error) {
	if !entityTypes[entity] || !verbs[verb] {
		return "", fmt.Errorf("%w: %s_%s", ErrUnknownAction, entity, verb)
	}
	return string(entity) + "_" + string(verb), nil
}

// Actions lists the full action vocabulary.
func Actions() []string {
	var out []string
	for _, e := range []EntityType{EntityEmployee, EntityCustomer, EntityLocation, EntityJob} {
		for _, v := range []Verb{VerbCreated, VerbUpdated, VerbDeleted, VerbRestored} {
			a, _ := Action(e, v)
			out = append(out, a)
		}
	}
	return out
}

// IsAction reports whether s belongs to the vocabulary.
func IsAction(s string) bool {
	for _, a := range Actions() {
		if a == s {
			return true
		}
	}
	return false
}

// Writer is the transactional store handle audit rows are written through.
type Writer interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Event describes one state change. Before and After are snapshots taken with
// Snapshot; CREATED events need After, every other verb needs both.
type Event struct {
	Actor    models.Principal
	Entity   EntityType
	Verb     Verb
	EntityID uuid.UUID
	Before   map[string]any
	After    map[string]any
}

// Recorder appends audit rows.
type Recorder struct {
	log *slog.Logger
}

// NewRecorder creates a Recorder; a nil logger selects slog.Default().
func NewRecorder(log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{log: log}
}

// Record validates ev and inserts one audit row through w.
func (r *Recorder) Record(ctx context.Context, w Writer, ev Event) (*models.AuditLog, error) {
	action, err := Action(ev.Entity, ev.Verb)
	if err != nil {
		return nil, err
	}
	if ev.Actor.IsZero() || ev.EntityID == uuid.Nil {
		return nil, fmt.Errorf("record %s: actor and entity id are required", action)
	}

	metadata, err := buildMetadata(ev)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", action, err)
	}

	entry := &models.AuditLog{
		CompanyID:  ev.Actor.CompanyID,
		EmployeeID: ev.Actor.EmployeeID,
		Action:     action,
		EntityType: string(ev.Entity),
		EntityID:   ev.EntityID,
		Metadata:   metadata,
	}
	if err := w.InsertAuditLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("record %s: %w", action, err)
	}

	metrics.AuditEventsTotal.WithLabelValues(action).Inc()
	r.log.DebugContext(ctx, "audit event recorded",
		"action", action,
		"entity_id", ev.EntityID,
		"company_id", ev.Actor.CompanyID,
		"actor_id", ev.Actor.EmployeeID,
	)
	return entry, nil
}

func buildMetadata(ev Event) (map[string]any, error) {
	switch ev.Verb {
	case VerbCreated:
		if ev.After == nil {
			return nil, ErrMissingSnapshot
		}
		return map[string]any{"after": ev.After}, nil
	case VerbUpdated, VerbDeleted, VerbRestored:
		if ev.Before == nil || ev.After == nil {
			return nil, ErrMissingSnapshot
		}
		return map[string]any{"before": ev.Before, "after": ev.After}, nil
	}
	return nil, ErrUnknownAction
}

// Snapshot captures v as a detached JSON object. It must be taken before the
// entity is mutated; later changes to v do not affect the snapshot.
func Snapshot(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("snapshot: %T is not an object", v)
	}
	return out, nil
}

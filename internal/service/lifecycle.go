package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/audit"
	"github.com/kiranshivaraju/timetrack/internal/softdelete"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// lifecycle binds the soft-delete transition to one entity kind.
type lifecycle[T softdelete.Entity] struct {
	entity audit.EntityType
	// load fetches the row and applies the access guard.
	load func(ctx context.Context, q store.Queries, p models.Principal, id uuid.UUID) (T, error)
	save func(ctx context.Context, q store.Queries, v T) error
	// check rejects transitions the entity kind forbids. Optional.
	check func(p models.Principal, v T, target softdelete.State) error
}

var lifecycleVerbs = map[softdelete.State]audit.Verb{
	softdelete.StateArchived: audit.VerbDeleted,
	softdelete.StateActive:   audit.VerbRestored,
}

// transition moves the entity identified by id towards target. A row already
// in the target state is returned unchanged, with nothing written or audited.
func transition[T softdelete.Entity](ctx context.Context, s *Service, p models.Principal, lc lifecycle[T], id uuid.UUID, target softdelete.State) (T, error) {
	var out T
	p, err := s.authorize(ctx, p, models.RoleAdmin)
	if err != nil {
		return out, err
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		v, err := lc.load(ctx, q, p, id)
		if err != nil {
			return err
		}
		if lc.check != nil {
			if err := lc.check(p, v, target); err != nil {
				return err
			}
		}

		before, err := audit.Snapshot(v)
		if err != nil {
			return err
		}
		changed, err := softdelete.Apply(v, target, p.EmployeeID, s.now())
		if err != nil {
			return err
		}
		out = v
		if !changed {
			return nil
		}

		if err := lc.save(ctx, q, v); err != nil {
			return err
		}
		after, err := audit.Snapshot(v)
		if err != nil {
			return err
		}
		return s.record(ctx, q, audit.Event{
			Actor:    p,
			Entity:   lc.entity,
			Verb:     lifecycleVerbs[target],
			EntityID: id,
			Before:   before,
			After:    after,
		})
	})
	if err != nil {
		var zero T
		return zero, translate("change "+string(lc.entity)+" state", err)
	}
	return out, nil
}

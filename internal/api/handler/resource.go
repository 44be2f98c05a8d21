package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// Resource groups the handlers of one soft-deletable admin collection.
// DELETE archives; POST .../restore restores.
type Resource struct {
	List    http.HandlerFunc
	Get     http.HandlerFunc
	Create  http.HandlerFunc
	Update  http.HandlerFunc
	Archive http.HandlerFunc
	Restore http.HandlerFunc
}

// newByIDHandler serves operations addressed by a single path id: get,
// archive and restore.
func newByIDHandler[T any](param string, fn func(ctx context.Context, p models.Principal, id uuid.UUID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, param)
		if !ok {
			return
		}
		v, err := fn(r.Context(), p, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, v)
	}
}

// newListHandler serves the showArchived-aware collection endpoints.
func newListHandler[T any](fn func(ctx context.Context, p models.Principal, includeArchived bool) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := newQueryParser(r)
		includeArchived := q.boolParam("showArchived")
		if q.err != nil {
			badRequest(w, q.err.Error())
			return
		}
		items, err := fn(r.Context(), p, includeArchived)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.List(w, items)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/timetrack/internal/api/middleware"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

const maxBodyBytes = 1 << 20

// principal returns the caller identity set by the auth middleware.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := mw.GetPrincipal(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required", nil)
		return models.Principal{}, false
	}
	return p, true
}

// decodeJSON reads a single JSON object into v. Unknown fields are rejected so
// typos in partial updates do not silently no-op.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(w, "Request body is required")
			return false
		}
		badRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

// pathID parses a UUID path parameter. A malformed id can never name an
// existing row, so it is reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

type queryParser struct {
	r   *http.Request
	err error
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{r: r}
}

func (q *queryParser) get(name string) string {
	return q.r.URL.Query().Get(name)
}

func (q *queryParser) boolParam(name string) bool {
	raw := q.get(name)
	if raw == "" || q.err != nil {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.err = fmt.Errorf("%s must be true or false", name)
		return false
	}
	return v
}

func (q *queryParser) intParam(name string) int {
	raw := q.get(name)
	if raw == "" || q.err != nil {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		q.err = fmt.Errorf("%s must be a non-negative integer", name)
		return 0
	}
	return v
}

func (q *queryParser) uuidParam(name string) *uuid.UUID {
	raw := q.get(name)
	if raw == "" || q.err != nil {
		return nil
	}
	v, err := uuid.Parse(raw)
	if err != nil {
		q.err = fmt.Errorf("%s must be a valid UUID", name)
		return nil
	}
	return &v
}

func (q *queryParser) timeParam(name string) time.Time {
	raw := q.get(name)
	if raw == "" || q.err != nil {
		return time.Time{}
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		q.err = fmt.Errorf("%s must be a valid RFC3339 timestamp", name)
		return time.Time{}
	}
	return v
}

// parseTimestamp parses a required RFC3339 body field.
func parseTimestamp(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a valid RFC3339 timestamp", field)
	}
	return t, nil
}

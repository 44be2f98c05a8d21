// Package storetest provides an in-memory store.Store for unit tests of the
// layers above the database.
package storetest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

type state struct {
	companies   map[uuid.UUID]models.Company
	employees   map[uuid.UUID]models.Employee
	customers   map[uuid.UUID]models.Customer
	locations   map[uuid.UUID]models.JobLocation
	jobs        map[uuid.UUID]models.Job
	timeEntries map[uuid.UUID]models.TimeEntry
	auditLogs   []models.AuditLog
	nextAuditID int64
}

func (s *state) clone() *state {
	return &state{
		companies:   maps.Clone(s.companies),
		employees:   maps.Clone(s.employees),
		customers:   maps.Clone(s.customers),
		locations:   maps.Clone(s.locations),
		jobs:        maps.Clone(s.jobs),
		timeEntries: maps.Clone(s.timeEntries),
		auditLogs:   slices.Clone(s.auditLogs),
		nextAuditID: s.nextAuditID,
	}
}

// Store is a goroutine-safe in-memory implementation of store.Store.
// Transactions run against a private copy that replaces the live state on
// success, so a failed transaction leaves no trace.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	// AuditErr, when set, is returned by every InsertAuditLog call.
	AuditErr error
	// PingErr is returned by Ping.
	PingErr error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		state: &state{
			companies:   map[uuid.UUID]models.Company{},
			employees:   map[uuid.UUID]models.Employee{},
			customers:   map[uuid.UUID]models.Customer{},
			locations:   map[uuid.UUID]models.JobLocation{},
			jobs:        map[uuid.UUID]models.Job{},
			timeEntries: map[uuid.UUID]models.TimeEntry{},
			nextAuditID: 1,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Ping(_ context.Context) error {
	return s.PingErr
}

func (s *Store) InTx(_ context.Context, fn func(q store.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &queries{st: s.state.clone(), parent: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.st
	return nil
}

// AuditLogs returns a copy of every recorded audit entry in insertion order.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.auditLogs)
}

// auto runs fn against the live state under the lock.
func (s *Store) auto(fn func(q *queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&queries{st: s.state, parent: s})
}

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) error {
	return s.auto(func(q *queries) error { return q.CreateCompany(ctx, c) })
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (c *models.Company, err error) {
	err = s.auto(func(q *queries) error { c, err = q.GetCompany(ctx, id); return err })
	return c, err
}

func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	return s.auto(func(q *queries) error { return q.CreateEmployee(ctx, e) })
}

func (s *Store) GetEmployee(ctx context.Context, id uuid.UUID) (e *models.Employee, err error) {
	err = s.auto(func(q *queries) error { e, err = q.GetEmployee(ctx, id); return err })
	return e, err
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (e *models.Employee, err error) {
	err = s.auto(func(q *queries) error { e, err = q.GetEmployeeByEmail(ctx, email); return err })
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, f store.EmployeeFilter) (out []*models.Employee, err error) {
	err = s.auto(func(q *queries) error { out, err = q.ListEmployees(ctx, f); return err })
	return out, err
}

func (s *Store) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	return s.auto(func(q *queries) error { return q.UpdateEmployee(ctx, e) })
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return s.auto(func(q *queries) error { return q.CreateCustomer(ctx, c) })
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (c *models.Customer, err error) {
	err = s.auto(func(q *queries) error { c, err = q.GetCustomer(ctx, id); return err })
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, f store.CustomerFilter) (out []*models.Customer, err error) {
	err = s.auto(func(q *queries) error { out, err = q.ListCustomers(ctx, f); return err })
	return out, err
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return s.auto(func(q *queries) error { return q.UpdateCustomer(ctx, c) })
}

func (s *Store) CreateLocation(ctx context.Context, l *models.JobLocation) error {
	return s.auto(func(q *queries) error { return q.CreateLocation(ctx, l) })
}

func (s *Store) GetLocation(ctx context.Context, id uuid.UUID) (l *models.JobLocation, err error) {
	err = s.auto(func(q *queries) error { l, err = q.GetLocation(ctx, id); return err })
	return l, err
}

func (s *Store) ListLocations(ctx context.Context, f store.LocationFilter) (out []*models.JobLocation, err error) {
	err = s.auto(func(q *queries) error { out, err = q.ListLocations(ctx, f); return err })
	return out, err
}

func (s *Store) UpdateLocation(ctx context.Context, l *models.JobLocation) error {
	return s.auto(func(q *queries) error { return q.UpdateLocation(ctx, l) })
}

func (s *Store) CreateJob(ctx context.Context, j *models.Job) error {
	return s.auto(func(q *queries) error { return q.CreateJob(ctx, j) })
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (j *models.Job, err error) {
	err = s.auto(func(q *queries) error { j, err = q.GetJob(ctx, id); return err })
	return j, err
}

func (s *Store) ListJobs(ctx context.Context, f store.JobFilter) (out []*models.Job, err error) {
	err = s.auto(func(q *queries) error { out, err = q.ListJobs(ctx, f); return err })
	return out, err
}

func (s *Store) UpdateJob(ctx context.Context, j *models.Job) error {
	return s.auto(func(q *queries) error { return q.UpdateJob(ctx, j) })
}

func (s *Store) CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	return s.auto(func(q *queries) error { return q.CreateTimeEntry(ctx, e) })
}

func (s *Store) GetTimeEntry(ctx context.Context, id uuid.UUID) (e *models.TimeEntry, err error) {
	err = s.auto(func(q *queries) error { e, err = q.GetTimeEntry(ctx, id); return err })
	return e, err
}

func (s *Store) ListTimeEntries(ctx context.Context, f store.TimeEntryFilter) (out []*models.TimeEntry, err error) {
	err = s.auto(func(q *queries) error { out, err = q.ListTimeEntries(ctx, f); return err })
	return out, err
}

func (s *Store) UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	return s.auto(func(q *queries) error { return q.UpdateTimeEntry(ctx, e) })
}

func (s *Store) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.auto(func(q *queries) error { return q.InsertAuditLog(ctx, entry) })
}

func (s *Store) ListAuditLogs(ctx context.Context, f store.AuditFilter) (out []*models.AuditLog, more bool, err error) {
	err = s.auto(func(q *queries) error { out, more, err = q.ListAuditLogs(ctx, f); return err })
	return out, more, err
}

// queries operates on a state without locking; callers hold Store.mu.
type queries struct {
	st     *state
	parent *Store
}

func (q *queries) CreateCompany(_ context.Context, c *models.Company) error {
	if _, ok := q.st.companies[c.ID]; ok {
		return store.ErrDuplicateKey
	}
	q.st.companies[c.ID] = *c
	return nil
}

func (q *queries) GetCompany(_ context.Context, id uuid.UUID) (*models.Company, error) {
	c, ok := q.st.companies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (q *queries) emailTaken(email string, except uuid.UUID) bool {
	for id, e := range q.st.employees {
		if id != except && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

func (q *queries) CreateEmployee(_ context.Context, e *models.Employee) error {
	if _, ok := q.st.companies[e.CompanyID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.employees[e.ID]; ok || q.emailTaken(e.Email, e.ID) {
		return store.ErrDuplicateKey
	}
	q.st.employees[e.ID] = *e
	return nil
}

func (q *queries) GetEmployee(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	e, ok := q.st.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (q *queries) GetEmployeeByEmail(_ context.Context, email string) (*models.Employee, error) {
	for _, e := range q.st.employees {
		if strings.EqualFold(e.Email, email) {
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (q *queries) ListEmployees(_ context.Context, f store.EmployeeFilter) ([]*models.Employee, error) {
	out := []*models.Employee{}
	for _, e := range q.st.employees {
		if e.CompanyID == f.CompanyID && (f.IncludeArchived || !e.Archived()) {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (q *queries) UpdateEmployee(_ context.Context, e *models.Employee) error {
	cur, ok := q.st.employees[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	if q.emailTaken(e.Email, e.ID) {
		return store.ErrDuplicateKey
	}
	e.CompanyID, e.CreatedAt = cur.CompanyID, cur.CreatedAt
	q.st.employees[e.ID] = *e
	return nil
}

func (q *queries) CreateCustomer(_ context.Context, c *models.Customer) error {
	if _, ok := q.st.companies[c.CompanyID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.customers[c.ID]; ok {
		return store.ErrDuplicateKey
	}
	q.st.customers[c.ID] = *c
	return nil
}

func (q *queries) GetCustomer(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	c, ok := q.st.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (q *queries) ListCustomers(_ context.Context, f store.CustomerFilter) ([]*models.Customer, error) {
	out := []*models.Customer{}
	for _, c := range q.st.customers {
		if c.CompanyID == f.CompanyID && (f.IncludeArchived || !c.Archived()) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (q *queries) UpdateCustomer(_ context.Context, c *models.Customer) error {
	cur, ok := q.st.customers[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.CompanyID, c.CreatedAt = cur.CompanyID, cur.CreatedAt
	q.st.customers[c.ID] = *c
	return nil
}

func copyLocation(l models.JobLocation) models.JobLocation {
	l.Tags = slices.Clone(l.Tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return l
}

func (q *queries) CreateLocation(_ context.Context, l *models.JobLocation) error {
	if _, ok := q.st.customers[l.CustomerID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.locations[l.ID]; ok {
		return store.ErrDuplicateKey
	}
	q.st.locations[l.ID] = copyLocation(*l)
	return nil
}

func (q *queries) GetLocation(_ context.Context, id uuid.UUID) (*models.JobLocation, error) {
	l, ok := q.st.locations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	l = copyLocation(l)
	return &l, nil
}

func (q *queries) ListLocations(_ context.Context, f store.LocationFilter) ([]*models.JobLocation, error) {
	out := []*models.JobLocation{}
	for _, l := range q.st.locations {
		if l.CustomerID == f.CustomerID && (f.IncludeArchived || !l.Archived()) {
			l = copyLocation(l)
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (q *queries) UpdateLocation(_ context.Context, l *models.JobLocation) error {
	cur, ok := q.st.locations[l.ID]
	if !ok {
		return store.ErrNotFound
	}
	l.CustomerID, l.CreatedAt = cur.CustomerID, cur.CreatedAt
	q.st.locations[l.ID] = copyLocation(*l)
	return nil
}

func (q *queries) jobRefsExist(j *models.Job) bool {
	_, okCompany := q.st.companies[j.CompanyID]
	_, okCustomer := q.st.customers[j.CustomerID]
	_, okLocation := q.st.locations[j.LocationID]
	return okCompany && okCustomer && okLocation
}

func (q *queries) CreateJob(_ context.Context, j *models.Job) error {
	if !q.jobRefsExist(j) {
		return store.ErrNotFound
	}
	if _, ok := q.st.jobs[j.ID]; ok {
		return store.ErrDuplicateKey
	}
	q.st.jobs[j.ID] = *j
	return nil
}

func (q *queries) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	j, ok := q.st.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &j, nil
}

func (q *queries) ListJobs(_ context.Context, f store.JobFilter) ([]*models.Job, error) {
	out := []*models.Job{}
	for _, j := range q.st.jobs {
		if j.CompanyID != f.CompanyID {
			continue
		}
		if f.CustomerID != nil && j.CustomerID != *f.CustomerID {
			continue
		}
		if !f.IncludeArchived && j.Archived() {
			continue
		}
		out = append(out, &j)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID.String() < out[k].ID.String()
	})
	return out, nil
}

func (q *queries) UpdateJob(_ context.Context, j *models.Job) error {
	cur, ok := q.st.jobs[j.ID]
	if !ok {
		return store.ErrNotFound
	}
	if !q.jobRefsExist(j) {
		return store.ErrNotFound
	}
	j.CompanyID, j.CreatedAt = cur.CompanyID, cur.CreatedAt
	q.st.jobs[j.ID] = *j
	return nil
}

func (q *queries) CreateTimeEntry(_ context.Context, e *models.TimeEntry) error {
	if _, ok := q.st.employees[e.EmployeeID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.jobs[e.JobID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.timeEntries[e.ID]; ok {
		return store.ErrDuplicateKey
	}
	q.st.timeEntries[e.ID] = *e
	return nil
}

func (q *queries) GetTimeEntry(_ context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	e, ok := q.st.timeEntries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (q *queries) ListTimeEntries(_ context.Context, f store.TimeEntryFilter) ([]*models.TimeEntry, error) {
	matched := []*models.TimeEntry{}
	for _, e := range q.st.timeEntries {
		switch {
		case e.CompanyID != f.CompanyID,
			f.EmployeeID != nil && e.EmployeeID != *f.EmployeeID,
			f.JobID != nil && e.JobID != *f.JobID,
			!f.From.IsZero() && e.Start.Before(f.From),
			!f.To.IsZero() && !e.Start.Before(f.To):
			continue
		}
		matched = append(matched, &e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Start.Equal(matched[j].Start) {
			return matched[i].Start.After(matched[j].Start)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	limit := store.NormalizeLimit(f.Limit, store.DefaultTimeEntryLimit, store.MaxTimeEntryLimit)
	return page(matched, max(f.Offset, 0), limit), nil
}

func (q *queries) UpdateTimeEntry(_ context.Context, e *models.TimeEntry) error {
	cur, ok := q.st.timeEntries[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := q.st.jobs[e.JobID]; !ok {
		return store.ErrNotFound
	}
	e.CompanyID, e.EmployeeID, e.CreatedAt = cur.CompanyID, cur.EmployeeID, cur.CreatedAt
	q.st.timeEntries[e.ID] = *e
	return nil
}

func (q *queries) InsertAuditLog(_ context.Context, entry *models.AuditLog) error {
	if q.parent.AuditErr != nil {
		return q.parent.AuditErr
	}
	if _, ok := q.st.employees[entry.EmployeeID]; !ok {
		return store.ErrNotFound
	}
	entry.ID = q.st.nextAuditID
	entry.CreatedAt = q.parent.now()
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	q.st.nextAuditID++
	q.st.auditLogs = append(q.st.auditLogs, *entry)
	return nil
}

func (q *queries) ListAuditLogs(_ context.Context, f store.AuditFilter) ([]*models.AuditLog, bool, error) {
	matched := []*models.AuditLog{}
	// Newest first: reverse insertion order matches created_at DESC, id DESC.
	for i := len(q.st.auditLogs) - 1; i >= 0; i-- {
		a := q.st.auditLogs[i]
		switch {
		case a.CompanyID != f.CompanyID,
			f.EntityType != "" && a.EntityType != f.EntityType,
			f.EntityID != nil && a.EntityID != *f.EntityID,
			f.Action != "" && a.Action != f.Action,
			!f.Since.IsZero() && a.CreatedAt.Before(f.Since):
			continue
		}
		if e, ok := q.st.employees[a.EmployeeID]; ok {
			a.EmployeeName = e.Name
		}
		matched = append(matched, &a)
	}
	limit := store.NormalizeLimit(f.Limit, store.DefaultAuditLimit, store.MaxAuditLimit)
	out := page(matched, max(f.Offset, 0), limit+1)
	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

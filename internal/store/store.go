package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrSerialization means a concurrent transaction modified a row this
// transaction read; the caller's view is stale.
var ErrSerialization = errors.New("concurrent modification")

// Queries is the data access surface shared by the pool and by transactions.
// Lookups by id return rows in any tenant and any lifecycle state; callers
// enforce ownership. List operations are always tenant-filtered.
type Queries interface {
	CreateCompany(ctx context.Context, c *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)

	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*models.Employee, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error

	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error

	CreateLocation(ctx context.Context, l *models.JobLocation) error
	GetLocation(ctx context.Context, id uuid.UUID) (*models.JobLocation, error)
	ListLocations(ctx context.Context, filter LocationFilter) ([]*models.JobLocation, error)
	UpdateLocation(ctx context.Context, l *models.JobLocation) error

	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, error)
	UpdateJob(ctx context.Context, j *models.Job) error

	CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error
	GetTimeEntry(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error)
	ListTimeEntries(ctx context.Context, filter TimeEntryFilter) ([]*models.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error

	// InsertAuditLog appends an entry and fills in its ID and CreatedAt.
	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
	// ListAuditLogs returns entries newest first and whether more remain.
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, bool, error)
}

// Store is the data access interface. All database operations go through here.
type Store interface {
	Queries
	Ping(ctx context.Context) error
	// InTx runs fn in a single transaction. The transaction commits only if
	// fn returns nil; any error or panic rolls it back.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

type EmployeeFilter struct {
	CompanyID       uuid.UUID
	IncludeArchived bool
}

type CustomerFilter struct {
	CompanyID       uuid.UUID
	IncludeArchived bool
}

type LocationFilter struct {
	CustomerID      uuid.UUID
	IncludeArchived bool
}

type JobFilter struct {
	CompanyID       uuid.UUID
	CustomerID      *uuid.UUID
	IncludeArchived bool
}

type TimeEntryFilter struct {
	CompanyID  uuid.UUID
	EmployeeID *uuid.UUID
	JobID      *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

type AuditFilter struct {
	CompanyID  uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	Action     string
	Since      time.Time
	Limit      int
	Offset     int
}

const (
	DefaultAuditLimit     = 50
	MaxAuditLimit         = 200
	DefaultTimeEntryLimit = 100
	MaxTimeEntryLimit     = 500
)

// NormalizeLimit clamps limit into [1, max], substituting def for non-positive values.
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

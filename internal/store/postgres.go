package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

const defaultQueryTimeout = 30 * time.Second

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	*queries
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: &queries{db: pool}, pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx runs fn inside a REPEATABLE READ transaction. A row changed by a
// concurrent transaction after fn read it surfaces as ErrSerialization
// rather than a silently lost update.
func (s *PostgresStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	return nil
}

type queries struct {
	db dbtx
}

// --- Companies ---

func (q *queries) CreateCompany(ctx context.Context, c *models.Company) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO companies (id, name, address, phone, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Address, c.Phone, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create company: %w", translate(err))
	}
	return nil
}

func (q *queries) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := q.db.QueryRow(ctx,
		`SELECT id, name, address, phone, created_at FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// --- Employees ---

const employeeColumns = `id, company_id, email, name, role, password_hash, deleted_at, deleted_by, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	var role string
	if err := row.Scan(&e.ID, &e.CompanyID, &e.Email, &e.Name, &role, &e.PasswordHash,
		&e.DeletedAt, &e.DeletedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Role = models.Role(role)
	return &e, nil
}

func (q *queries) CreateEmployee(ctx context.Context, e *models.Employee) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO employees (`+employeeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.CompanyID, e.Email, e.Name, string(e.Role), e.PasswordHash,
		e.DeletedAt, e.DeletedBy, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create employee: %w", translate(err))
	}
	return nil
}

func (q *queries) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	e, err := scanEmployee(q.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (q *queries) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	e, err := scanEmployee(q.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by email: %w", err)
	}
	return e, nil
}

func (q *queries) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1`
	if !filter.IncludeArchived {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY name, id`

	rows, err := q.db.Query(ctx, query, filter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (q *queries) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE employees SET email = $2, name = $3, role = $4, password_hash = $5,
		   deleted_at = $6, deleted_by = $7, updated_at = $8
		 WHERE id = $1`,
		e.ID, e.Email, e.Name, string(e.Role), e.PasswordHash, e.DeletedAt, e.DeletedBy, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update employee: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Customers ---

const customerColumns = `id, company_id, name, email, phone, business_address, mailing_address,
	deleted_at, deleted_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.BusinessAddress,
		&c.MailingAddress, &c.DeletedAt, &c.DeletedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *queries) CreateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.CompanyID, c.Name, c.Email, c.Phone, c.BusinessAddress, c.MailingAddress,
		c.DeletedAt, c.DeletedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create customer: %w", translate(err))
	}
	return nil
}

func (q *queries) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (q *queries) ListCustomers(ctx context.Context, filter CustomerFilter) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1`
	if !filter.IncludeArchived {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY name, id`

	rows, err := q.db.Query(ctx, query, filter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (q *queries) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE customers SET name = $2, email = $3, phone = $4, business_address = $5,
		   mailing_address = $6, deleted_at = $7, deleted_by = $8, updated_at = $9
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.BusinessAddress, c.MailingAddress,
		c.DeletedAt, c.DeletedBy, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update customer: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Job Locations ---

const locationColumns = `id, customer_id, name, address, latitude, longitude, tags,
	deleted_at, deleted_by, created_at, updated_at`

func scanLocation(row pgx.Row) (*models.JobLocation, error) {
	var l models.JobLocation
	if err := row.Scan(&l.ID, &l.CustomerID, &l.Name, &l.Address, &l.Latitude, &l.Longitude,
		&l.Tags, &l.DeletedAt, &l.DeletedBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (q *queries) CreateLocation(ctx context.Context, l *models.JobLocation) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO job_locations (`+locationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.CustomerID, l.Name, l.Address, l.Latitude, l.Longitude, nonNilTags(l.Tags),
		l.DeletedAt, l.DeletedBy, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create location: %w", translate(err))
	}
	return nil
}

func (q *queries) GetLocation(ctx context.Context, id uuid.UUID) (*models.JobLocation, error) {
	l, err := scanLocation(q.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM job_locations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (q *queries) ListLocations(ctx context.Context, filter LocationFilter) ([]*models.JobLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM job_locations WHERE customer_id = $1`
	if !filter.IncludeArchived {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.db.Query(ctx, query, filter.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations := []*models.JobLocation{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (q *queries) UpdateLocation(ctx context.Context, l *models.JobLocation) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE job_locations SET name = $2, address = $3, latitude = $4, longitude = $5, tags = $6,
		   deleted_at = $7, deleted_by = $8, updated_at = $9
		 WHERE id = $1`,
		l.ID, l.Name, l.Address, l.Latitude, l.Longitude, nonNilTags(l.Tags),
		l.DeletedAt, l.DeletedBy, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update location: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Jobs ---

const jobColumns = `id, company_id, customer_id, location_id, name, note,
	deleted_at, deleted_by, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	if err := row.Scan(&j.ID, &j.CompanyID, &j.CustomerID, &j.LocationID, &j.Name, &j.Note,
		&j.DeletedAt, &j.DeletedBy, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (q *queries) CreateJob(ctx context.Context, j *models.Job) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		j.ID, j.CompanyID, j.CustomerID, j.LocationID, j.Name, j.Note,
		j.DeletedAt, j.DeletedBy, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", translate(err))
	}
	return nil
}

func (q *queries) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(q.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (q *queries) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, error) {
	conditions := []string{"company_id = $1"}
	args := []any{filter.CompanyID}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id`

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (q *queries) UpdateJob(ctx context.Context, j *models.Job) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE jobs SET customer_id = $2, location_id = $3, name = $4, note = $5,
		   deleted_at = $6, deleted_by = $7, updated_at = $8
		 WHERE id = $1`,
		j.ID, j.CustomerID, j.LocationID, j.Name, j.Note, j.DeletedAt, j.DeletedBy, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Time Entries ---

const timeEntryColumns = `id, company_id, employee_id, job_id, start_at, end_at, duration_ms, note,
	created_at, updated_at`

func scanTimeEntry(row pgx.Row) (*models.TimeEntry, error) {
	var e models.TimeEntry
	if err := row.Scan(&e.ID, &e.CompanyID, &e.EmployeeID, &e.JobID, &e.Start, &e.End,
		&e.DurationMs, &e.Note, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *queries) CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO time_entries (`+timeEntryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.CompanyID, e.EmployeeID, e.JobID, e.Start, e.End, e.DurationMs, e.Note,
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create time entry: %w", translate(err))
	}
	return nil
}

func (q *queries) GetTimeEntry(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	e, err := scanTimeEntry(q.db.QueryRow(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

func (q *queries) ListTimeEntries(ctx context.Context, filter TimeEntryFilter) ([]*models.TimeEntry, error) {
	// Build WHERE clause dynamically
	conditions := []string{"company_id = $1"}
	args := []any{filter.CompanyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.JobID != nil {
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", argIdx))
		args = append(args, *filter.JobID)
		argIdx++
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_at >= $%d", argIdx))
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", argIdx))
		args = append(args, filter.To)
		argIdx++
	}

	limit := NormalizeLimit(filter.Limit, DefaultTimeEntryLimit, MaxTimeEntryLimit)
	offset := max(filter.Offset, 0)

	query := fmt.Sprintf(
		`SELECT %s FROM time_entries WHERE %s ORDER BY start_at DESC, id LIMIT $%d OFFSET $%d`,
		timeEntryColumns, strings.Join(conditions, " AND "), argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *queries) UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE time_entries SET job_id = $2, start_at = $3, end_at = $4, duration_ms = $5,
		   note = $6, updated_at = $7
		 WHERE id = $1`,
		e.ID, e.JobID, e.Start, e.End, e.DurationMs, e.Note, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update time entry: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Audit Log ---

func (q *queries) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := q.db.QueryRow(ctx,
		`INSERT INTO audit_logs (company_id, employee_id, action, entity_type, entity_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		entry.CompanyID, entry.EmployeeID, entry.Action, entry.EntityType, entry.EntityID, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", translate(err))
	}
	return nil
}

func (q *queries) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, bool, error) {
	conditions := []string{"a.company_id = $1"}
	args := []any{filter.CompanyID}
	argIdx := 2

	if filter.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("a.entity_type = $%d", argIdx))
		args = append(args, filter.EntityType)
		argIdx++
	}
	if filter.EntityID != nil {
		conditions = append(conditions, fmt.Sprintf("a.entity_id = $%d", argIdx))
		args = append(args, *filter.EntityID)
		argIdx++
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argIdx))
		args = append(args, filter.Action)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("a.created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	limit := NormalizeLimit(filter.Limit, DefaultAuditLimit, MaxAuditLimit)
	offset := max(filter.Offset, 0)

	query := fmt.Sprintf(
		`SELECT a.id, a.company_id, a.employee_id, COALESCE(e.name, ''), a.action, a.entity_type,
		        a.entity_id, a.metadata, a.created_at
		 FROM audit_logs a
		 LEFT JOIN employees e ON e.id = a.employee_id
		 WHERE %s
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditLog{}
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.EmployeeName, &a.Action,
			&a.EntityType, &a.EntityID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("list audit logs: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}

// translate maps constraint and concurrency failures onto store sentinels.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return ErrDuplicateKey
	case "23503": // foreign_key_violation
		return ErrNotFound
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return ErrSerialization
	}
	return err
}

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/timetrack/internal/store"
	"github.com/kiranshivaraju/timetrack/migrations"
	"github.com/kiranshivaraju/timetrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("timetrack_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr, migrations.FS))
	// Second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrations.FS))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

type fixture struct {
	company  *models.Company
	admin    *models.Employee
	customer *models.Customer
	location *models.JobLocation
	job      *models.Job
}

// seed creates a company with one admin, customer, location and job.
func seed(t *testing.T, s store.Store, email string) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	company := &models.Company{
		ID:        uuid.New(),
		Name:      "Acme",
		Address:   models.Address{Street: "1 Main St", City: "Springfield", Country: "US"},
		Phone:     "555-0100",
		CreatedAt: now,
	}
	require.NoError(t, s.CreateCompany(ctx, company))

	admin := &models.Employee{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		Email:        email,
		Name:         "Ada Admin",
		Role:         models.RoleAdmin,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateEmployee(ctx, admin))

	customer := &models.Customer{
		ID:              uuid.New(),
		CompanyID:       company.ID,
		Name:            "Globex",
		BusinessAddress: models.Address{Street: "2 Side St", City: "Shelbyville"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.CreateCustomer(ctx, customer))

	location := &models.JobLocation{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Address:    models.Address{Street: "3 Dock Rd"},
		Tags:       []string{"warehouse"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateLocation(ctx, location))

	job := &models.Job{
		ID:         uuid.New(),
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		LocationID: location.ID,
		Name:       "Install shelving",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	return fixture{company: company, admin: admin, customer: customer, location: location, job: job}
}

// --- Employee Tests ---

func TestEmployee_GetByEmailIsCaseInsensitive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	f := seed(t, s, "ada@example.com")

	got, err := s.GetEmployeeByEmail(context.Background(), "ADA@Example.com")
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Nil(t, got.DeletedAt)
}

func TestEmployee_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	f := seed(t, s, "ada@example.com")
	now := time.Now().UTC()

	err := s.CreateEmployee(context.Background(), &models.Employee{
		ID:           uuid.New(),
		CompanyID:    f.company.ID,
		Email:        "Ada@example.com",
		Name:         "Impostor",
		Role:         models.RoleEmployee,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestEmployee_ArchiveHidesFromDefaultList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")
	now := time.Now().UTC().Truncate(time.Microsecond)

	worker := &models.Employee{
		ID: uuid.New(), CompanyID: f.company.ID, Email: "bob@example.com", Name: "Bob",
		Role: models.RoleEmployee, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateEmployee(ctx, worker))

	worker.DeletedAt = &now
	worker.DeletedBy = &f.admin.ID
	require.NoError(t, s.UpdateEmployee(ctx, worker))

	active, err := s.ListEmployees(ctx, store.EmployeeFilter{CompanyID: f.company.ID})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := s.ListEmployees(ctx, store.EmployeeFilter{CompanyID: f.company.ID, IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.GetEmployee(ctx, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedBy)
	assert.Equal(t, f.admin.ID, *got.DeletedBy)
}

func TestEmployee_UpdateNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	err := s.UpdateEmployee(context.Background(), &models.Employee{ID: uuid.New(), Role: models.RoleEmployee})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Customer / Location / Job Tests ---

func TestCustomer_AddressRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	f.customer.MailingAddress = &models.Address{Street: "PO Box 9", City: "Capital City"}
	require.NoError(t, s.UpdateCustomer(ctx, f.customer))

	got, err := s.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "2 Side St", got.BusinessAddress.Street)
	require.NotNil(t, got.MailingAddress)
	assert.Equal(t, "PO Box 9", got.MailingAddress.Street)
}

func TestCustomer_ListIsTenantScoped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	a := seed(t, s, "a@example.com")
	seed(t, s, "b@example.com")

	customers, err := s.ListCustomers(context.Background(), store.CustomerFilter{CompanyID: a.company.ID})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, a.customer.ID, customers[0].ID)
}

func TestLocation_TagsAndArchive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	got, err := s.GetLocation(ctx, f.location.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"warehouse"}, got.Tags)

	now := time.Now().UTC()
	got.Tags = nil
	got.DeletedAt = &now
	got.DeletedBy = &f.admin.ID
	require.NoError(t, s.UpdateLocation(ctx, got))

	active, err := s.ListLocations(ctx, store.LocationFilter{CustomerID: f.customer.ID})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListLocations(ctx, store.LocationFilter{CustomerID: f.customer.ID, IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{}, all[0].Tags)
}

func TestJob_ListByCustomer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	jobs, err := s.ListJobs(ctx, store.JobFilter{CompanyID: f.company.ID, CustomerID: &f.customer.ID})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, f.job.ID, jobs[0].ID)

	other := uuid.New()
	jobs, err = s.ListJobs(ctx, store.JobFilter{CompanyID: f.company.ID, CustomerID: &other})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJob_UnknownLocationIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	f := seed(t, s, "ada@example.com")
	now := time.Now().UTC()

	err := s.CreateJob(context.Background(), &models.Job{
		ID: uuid.New(), CompanyID: f.company.ID, CustomerID: f.customer.ID, LocationID: uuid.New(),
		Name: "Ghost", CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Time Entry Tests ---

func TestTimeEntry_ListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		end := start.Add(2 * time.Hour)
		require.NoError(t, s.CreateTimeEntry(ctx, &models.TimeEntry{
			ID: uuid.New(), CompanyID: f.company.ID, EmployeeID: f.admin.ID, JobID: f.job.ID,
			Start: start, End: end, DurationMs: end.Sub(start).Milliseconds(),
			CreatedAt: start, UpdatedAt: start,
		}))
	}

	all, err := s.ListTimeEntries(ctx, store.TimeEntryFilter{CompanyID: f.company.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Start.After(all[1].Start), "newest first")

	ranged, err := s.ListTimeEntries(ctx, store.TimeEntryFilter{
		CompanyID: f.company.ID,
		From:      base.Add(12 * time.Hour),
		To:        base.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	other := uuid.New()
	none, err := s.ListTimeEntries(ctx, store.TimeEntryFilter{CompanyID: f.company.ID, EmployeeID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTimeEntry_EndBeforeStartRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	f := seed(t, s, "ada@example.com")
	now := time.Now().UTC()

	err := s.CreateTimeEntry(context.Background(), &models.TimeEntry{
		ID: uuid.New(), CompanyID: f.company.ID, EmployeeID: f.admin.ID, JobID: f.job.ID,
		Start: now, End: now.Add(-time.Minute), CreatedAt: now, UpdatedAt: now,
	})
	assert.Error(t, err)
}

// --- Audit Log Tests ---

func TestAuditLog_InsertAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	for _, action := range []string{"CUSTOMER_CREATED", "CUSTOMER_UPDATED", "CUSTOMER_DELETED"} {
		entry := &models.AuditLog{
			CompanyID:  f.company.ID,
			EmployeeID: f.admin.ID,
			Action:     action,
			EntityType: "CUSTOMER",
			EntityID:   f.customer.ID,
			Metadata:   map[string]any{"after": map[string]any{"name": "Globex"}},
		}
		require.NoError(t, s.InsertAuditLog(ctx, entry))
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	}

	page, hasMore, err := s.ListAuditLogs(ctx, store.AuditFilter{CompanyID: f.company.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, hasMore)
	assert.Equal(t, "CUSTOMER_DELETED", page[0].Action)
	assert.Equal(t, "Ada Admin", page[0].EmployeeName)
	assert.Equal(t, "Globex", page[0].Metadata["after"].(map[string]any)["name"])

	rest, hasMore, err := s.ListAuditLogs(ctx, store.AuditFilter{CompanyID: f.company.ID, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.False(t, hasMore)

	filtered, _, err := s.ListAuditLogs(ctx, store.AuditFilter{CompanyID: f.company.ID, Action: "CUSTOMER_UPDATED"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestAuditLog_AppendOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	require.NoError(t, s.InsertAuditLog(ctx, &models.AuditLog{
		CompanyID: f.company.ID, EmployeeID: f.admin.ID, Action: "JOB_CREATED",
		EntityType: "JOB", EntityID: f.job.ID,
	}))

	_, err := pool.Exec(ctx, `UPDATE audit_logs SET action = 'JOB_DELETED'`)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM audit_logs`)
	assert.Error(t, err)
}

// --- Transaction Tests ---

func TestInTx_RollbackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(q store.Queries) error {
		f.customer.Name = "Renamed"
		if err := q.UpdateCustomer(ctx, f.customer); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.Name)
}

func TestInTx_ConcurrentUpdateIsSerializationError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	f := seed(t, s, "ada@example.com")

	err := s.InTx(ctx, func(q store.Queries) error {
		c, err := q.GetCustomer(ctx, f.customer.ID)
		if err != nil {
			return err
		}

		// A second writer commits between our read and our write.
		other := *f.customer
		other.Name = "Other writer"
		require.NoError(t, s.UpdateCustomer(ctx, &other))

		c.Name = "Stale writer"
		return q.UpdateCustomer(ctx, c)
	})
	assert.ErrorIs(t, err, store.ErrSerialization)

	got, err := s.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Other writer", got.Name)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 50, store.NormalizeLimit(0, 50, 200))
	assert.Equal(t, 50, store.NormalizeLimit(-3, 50, 200))
	assert.Equal(t, 10, store.NormalizeLimit(10, 50, 200))
	assert.Equal(t, 200, store.NormalizeLimit(999, 50, 200))
}

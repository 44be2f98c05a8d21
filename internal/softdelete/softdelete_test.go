package softdelete_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/softdelete"
	"github.com/kiranshivaraju/timetrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_FromActive(t *testing.T) {
	c := &models.Customer{ID: uuid.New(), Name: "Acme"}
	actor := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	changed := softdelete.Archive(c, actor, now)
	require.True(t, changed)
	assert.Equal(t, softdelete.StateArchived, softdelete.StateOf(c.Lifecycle()))
	require.NotNil(t, c.DeletedAt)
	assert.True(t, c.DeletedAt.Equal(now))
	require.NotNil(t, c.DeletedBy)
	assert.Equal(t, actor, *c.DeletedBy)
}

func TestArchive_AlreadyArchivedIsNoOp(t *testing.T) {
	j := &models.Job{ID: uuid.New()}
	first := uuid.New()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.True(t, softdelete.Archive(j, first, at))

	changed := softdelete.Archive(j, uuid.New(), at.Add(time.Hour))
	assert.False(t, changed)
	assert.Equal(t, first, *j.DeletedBy)
	assert.True(t, j.DeletedAt.Equal(at))
}

func TestRestore(t *testing.T) {
	e := &models.Employee{ID: uuid.New()}
	assert.False(t, softdelete.Restore(e), "restoring an active row is a no-op")

	require.True(t, softdelete.Archive(e, uuid.New(), time.Now()))
	require.True(t, softdelete.Restore(e))
	assert.Nil(t, e.DeletedAt)
	assert.Nil(t, e.DeletedBy)
	assert.Equal(t, softdelete.StateActive, softdelete.StateOf(e.Lifecycle()))
}

func TestArchiveRestore_RoundTrip(t *testing.T) {
	name := "North yard"
	lat, lng := 45.5, -122.6
	loc := &models.JobLocation{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Name:       &name,
		Address:    models.Address{Street: "1 Main St", City: "Portland", State: "OR", PostalCode: "97201"},
		Latitude:   &lat,
		Longitude:  &lng,
		Tags:       []string{"gate-code"},
	}
	original := *loc

	require.True(t, softdelete.Archive(loc, uuid.New(), time.Now()))
	require.True(t, softdelete.Restore(loc))
	assert.Equal(t, original, *loc)
}

func TestApply(t *testing.T) {
	c := &models.Customer{}
	changed, err := softdelete.Apply(c, softdelete.StateArchived, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = softdelete.Apply(c, softdelete.StateActive, uuid.Nil, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = softdelete.Apply(c, softdelete.State("PURGED"), uuid.Nil, time.Now())
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, softdelete.CanTransition(softdelete.StateActive, softdelete.StateArchived))
	assert.True(t, softdelete.CanTransition(softdelete.StateArchived, softdelete.StateActive))
	assert.False(t, softdelete.CanTransition(softdelete.StateActive, softdelete.StateActive))
	assert.False(t, softdelete.CanTransition(softdelete.StateArchived, softdelete.State("PURGED")))
}

func TestIncludeArchived(t *testing.T) {
	adminP := models.Principal{EmployeeID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleAdmin}
	workerP := models.Principal{EmployeeID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleEmployee}

	assert.True(t, softdelete.IncludeArchived(adminP, true))
	assert.False(t, softdelete.IncludeArchived(adminP, false))
	assert.False(t, softdelete.IncludeArchived(workerP, true))
}

func TestVisible(t *testing.T) {
	j := &models.Job{}
	assert.True(t, softdelete.Visible(j, false))
	softdelete.Archive(j, uuid.New(), time.Now())
	assert.False(t, softdelete.Visible(j, false))
	assert.True(t, softdelete.Visible(j, true))
}

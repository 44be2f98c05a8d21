package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)

	return rc
}

// --- Ping ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	err := rc.Ping(context.Background())
	assert.NoError(t, err)
}

// --- Count / IncrWithExpiry ---

func TestCount_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	n, err := rc.Count(context.Background(), "nonexistent:key")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIncrWithExpiry_Counts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.RateLimitKey(uuid.New())

	for want := int64(1); want <= 3; want++ {
		n, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := rc.Count(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIncrWithExpiry_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.LoginFailuresKey("ada@example.com")

	_, err := rc.IncrWithExpiry(ctx, key, 1*time.Second)
	require.NoError(t, err)

	// Wait for TTL to expire
	time.Sleep(1500 * time.Millisecond)

	n, err := rc.Count(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := cache.LoginFailuresKey("bob@example.com")

	_, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, rc.Delete(ctx, key))

	n, err := rc.Count(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDelete_NonExistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	err := rc.Delete(context.Background(), "does:not:exist")
	assert.NoError(t, err)
}

// --- Keys ---

func TestLoginFailuresKey_NormalizesEmail(t *testing.T) {
	assert.Equal(t, cache.LoginFailuresKey("ada@example.com"), cache.LoginFailuresKey("  ADA@Example.com "))
}

func TestRateLimitKey(t *testing.T) {
	id := uuid.MustParse("7f2c1d7e-3b7a-4d0e-9a53-0d4b7f7a1c11")
	assert.Equal(t, "ratelimit:7f2c1d7e-3b7a-4d0e-9a53-0d4b7f7a1c11", cache.RateLimitKey(id))
}

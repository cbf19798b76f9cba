package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *RedisLocker {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := Connect(context.Background(), Options{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "hris:lock:reconciliation:2025-09-01", Key("reconciliation", "", "2025-09-01"))
	assert.Equal(t, "hris:lock", Key())
}

// Test a held lock blocks a second holder until released
func TestRedisLocker_AcquireRelease(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	release, ok, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))

	release2, ok, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, release2(ctx))
}

// Test a stale release does not free a lock taken over by another holder
func TestRedisLocker_ReleaseAfterExpiry(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	staleRelease, ok, err := locker.Acquire(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(250 * time.Millisecond)

	release, ok, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, staleRelease(ctx))

	_, ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "stale release must not delete the new holder's lock")

	require.NoError(t, release(ctx))
}

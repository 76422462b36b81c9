package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.TryAcquire(ctx, "precalc:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.TryAcquire(ctx, "precalc:p1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must lose")

	// A different key is independent.
	ok, err = locker.TryAcquire(ctx, "precalc:p2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_ReleaseAllowsReacquire(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, _ := locker.TryAcquire(ctx, "settle:p1", time.Minute)
	require.True(t, ok)
	require.NoError(t, locker.Release(ctx, "settle:p1"))

	ok, err := locker.TryAcquire(ctx, "settle:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_TTLExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, _ := locker.TryAcquire(ctx, "precalc:p1", 10*time.Millisecond)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, err := locker.TryAcquire(ctx, "precalc:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must be reacquirable")
}

func TestMemoryLocker_ZeroTTLNeverExpires(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, _ := locker.TryAcquire(ctx, "precalc:p1", 0)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err := locker.TryAcquire(ctx, "precalc:p1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	lock := NewTurnLock()

	token, ok, err := lock.Acquire(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must be rejected while held")

	// A stale token does not release someone else's lock.
	require.NoError(t, lock.Release(ctx, "session-1", "stale"))
	_, ok, _ = lock.Acquire(ctx, "session-1", time.Minute)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "session-1", token))
	_, ok, _ = lock.Acquire(ctx, "session-1", time.Minute)
	assert.True(t, ok)
}

func TestTurnLock_Expires(t *testing.T) {
	ctx := context.Background()
	lock := NewTurnLock()

	_, ok, _ := lock.Acquire(ctx, "session-2", 20*time.Millisecond)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok, _ = lock.Acquire(ctx, "session-2", time.Minute)
	assert.True(t, ok)
}

func TestTurnLock_ExtendKeepsHolder(t *testing.T) {
	ctx := context.Background()
	lock := NewTurnLock()

	token, ok, _ := lock.Acquire(ctx, "session-3", 60*time.Millisecond)
	require.True(t, ok)

	for i := 0; i < 6; i++ {
		time.Sleep(20 * time.Millisecond)
		held, err := lock.Extend(ctx, "session-3", token, 60*time.Millisecond)
		require.NoError(t, err)
		require.True(t, held)
	}

	_, ok, _ = lock.Acquire(ctx, "session-3", time.Minute)
	assert.False(t, ok, "an extended lock outlives its first ttl")

	held, err := lock.Extend(ctx, "session-3", "stale", time.Minute)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestTurnLock_ExpiredHolderCannotTouchNewHolder(t *testing.T) {
	ctx := context.Background()
	lock := NewTurnLock()

	old, ok, _ := lock.Acquire(ctx, "session-4", 20*time.Millisecond)
	require.True(t, ok)
	time.Sleep(40 * time.Millisecond)

	_, ok, _ = lock.Acquire(ctx, "session-4", time.Minute)
	require.True(t, ok)

	held, err := lock.Extend(ctx, "session-4", old, time.Minute)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, lock.Release(ctx, "session-4", old))
	_, ok, _ = lock.Acquire(ctx, "session-4", time.Minute)
	assert.False(t, ok, "a stale release must not free the new holder's lock")
}

func TestTurnLock_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	lock := NewTurnLock()

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := lock.Acquire(ctx, "hot", time.Minute); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestQuotaStore_ConsumeUntilLimit(t *testing.T) {
	ctx := context.Background()
	store := NewQuotaStore()

	for i := 1; i <= 5; i++ {
		used, granted, err := store.Consume(ctx, "device-a", "2026-03-01", 5)
		require.NoError(t, err)
		assert.True(t, granted)
		assert.Equal(t, i, used)
	}

	used, granted, err := store.Consume(ctx, "device-a", "2026-03-01", 5)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, 5, used)

	// A new day starts from zero.
	used, granted, _ = store.Consume(ctx, "device-a", "2026-03-02", 5)
	assert.True(t, granted)
	assert.Equal(t, 1, used)
}

func TestQuotaStore_Refund(t *testing.T) {
	ctx := context.Background()
	store := NewQuotaStore()

	_, _, _ = store.Consume(ctx, "device-b", "2026-03-01", 5)
	_, _, _ = store.Consume(ctx, "device-b", "2026-03-01", 5)
	require.NoError(t, store.Refund(ctx, "device-b", "2026-03-01"))

	used, err := store.Used(ctx, "device-b", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	// Refunding an unused day is a no-op.
	require.NoError(t, store.Refund(ctx, "device-b", "2026-01-01"))
	used, _ = store.Used(ctx, "device-b", "2026-01-01")
	assert.Equal(t, 0, used)
}

func TestQuotaStore_ConcurrentConsumeNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	store := NewQuotaStore()

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := store.Consume(ctx, "device-c", "2026-03-01", 5); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted)
}

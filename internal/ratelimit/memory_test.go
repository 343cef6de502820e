package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrement(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()

	t.Run("counts up within one window", func(t *testing.T) {
		for want := int64(1); want <= 5; want++ {
			count, expiresAt, err := store.Increment(ctx, "user:1", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, want, count)
			assert.True(t, expiresAt.After(time.Now()))
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		count, _, err := store.Increment(ctx, "user:2", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("expired window restarts at one", func(t *testing.T) {
		_, _, err := store.Increment(ctx, "anon:10.0.0.1", 30*time.Millisecond)
		require.NoError(t, err)
		_, _, err = store.Increment(ctx, "anon:10.0.0.1", 30*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		count, _, err := store.Increment(ctx, "anon:10.0.0.1", 30*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

// Firing M concurrent requests for one key must yield counts 1..M with
// no duplicates, so a limiter sitting on top admits exactly N of them.
func TestMemoryStoreConcurrentExactness(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	const (
		workers = 100
		limit   = int64(25)
	)

	var allowed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, _, err := store.Increment(context.Background(), "hot-key", time.Minute)
			assert.NoError(t, err)
			if count <= limit {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed.Load(), "exactly N of M concurrent requests may pass")
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	_, _, err := store.Increment(context.Background(), "short", 10*time.Millisecond)
	require.NoError(t, err)
	_, _, err = store.Increment(context.Background(), "long", time.Hour)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	store.sweep(time.Now())

	shard := store.shardFor("short")
	shard.mu.Lock()
	_, shortAlive := shard.entries["short"]
	shard.mu.Unlock()
	assert.False(t, shortAlive)

	shard = store.shardFor("long")
	shard.mu.Lock()
	_, longAlive := shard.entries["long"]
	shard.mu.Unlock()
	assert.True(t, longAlive)
}

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new key as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "sweep:2026-01-15", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("returns false for an already marked key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "sweep:2026-01-16", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "sweep:2026-01-16", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("allows remarking after expiration", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "sweep:short", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, "sweep:short", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("only one concurrent caller wins", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		wins := make(chan bool, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				isNew, err := store.MarkProcessed(ctx, "sweep:contested", time.Hour)
				require.NoError(t, err)
				wins <- isNew
			}()
		}
		wg.Wait()
		close(wins)

		winners := 0
		for isNew := range wins {
			if isNew {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for an unknown key", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("returns true for a marked key", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "known", time.Hour)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, "known")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("returns false for an expired key", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "expired", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "expired")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/infrastructure/config"
)

func newMiniredisStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStoreWithClient(client, "")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark wins and value is recalled", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		isNew, err := store.MarkProcessed(ctx, "alice:k1", "order-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "alice:k1", "order-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		v, found, err := store.Recall(ctx, "alice:k1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "order-1", v)

		assert.True(t, mr.Exists(DefaultKeyPrefix+"alice:k1"))
	})

	t.Run("missing key", func(t *testing.T) {
		store, _ := newMiniredisStore(t)

		_, found, err := store.Recall(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		store, mr := newMiniredisStore(t)

		_, err := store.MarkProcessed(ctx, "k", "order-1", time.Minute)
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)

		_, found, err := store.Recall(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("server errors are wrapped", func(t *testing.T) {
		store, mr := newMiniredisStore(t)
		mr.SetError("ERR simulated outage")

		_, err := store.MarkProcessed(ctx, "k", "v", time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark key as processed")

		_, _, err = store.Recall(ctx, "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read idempotency key")
	})
}

func TestNewRedisIdempotencyStore_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisIdempotencyStore(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DefaultKeyPrefix, store.keyPrefix)
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("reachable redis is used", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}

		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}
		mr.Close()

		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}
		mr.Close()

		_, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}

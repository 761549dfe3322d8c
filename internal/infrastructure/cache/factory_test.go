package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()
	refused := errors.New("dial tcp: connection refused")

	t.Run("uses redis when reachable", func(t *testing.T) {
		want := NewInMemoryIdempotencyStore()
		defer want.Close()

		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "redis", Port: 6379})
		f.connect = func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) { return want, nil }

		got, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.Same(t, want, got)
	})

	t.Run("falls back to memory with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewIdempotencyStoreFactory(config.RedisConfig{}, WithLogger(zap.New(core)))
		f.connect = func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) { return nil, refused }

		got, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer got.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, got)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{}, WithInMemoryFallback(false))
		f.connect = func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) { return nil, refused }

		_, err := f.CreateStore(ctx)
		assert.ErrorIs(t, err, refused)
	})
}

func TestNewRedisIdempotencyStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisIdempotencyStore(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestRedisIdempotencyStore_Container(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	store := NewRedisIdempotencyStoreWithClient(client, "test:")
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	fresh, err := store.MarkProcessed(ctx, "tenant-1:pi_123", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "tenant-1:pi_123", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	ttl, err := client.TTL(ctx, "test:tenant-1:pi_123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	processed, err := store.IsProcessed(ctx, "tenant-1:pi_123")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "tenant-1:pi_123"))
	processed, err = store.IsProcessed(ctx, "tenant-1:pi_123")
	require.NoError(t, err)
	assert.False(t, processed)
}

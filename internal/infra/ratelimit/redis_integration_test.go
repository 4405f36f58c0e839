//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)
	return endpoint
}

func TestRedisStore_TakeAndRefill(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, Limit{Capacity: 2, Refill: 1, Every: 200 * time.Millisecond}, "test:")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := store.Take(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := store.Take(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	// 別クライアントは独立
	res, err = store.Take(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	time.Sleep(250 * time.Millisecond)
	res, err = store.Take(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	ttl, err := client.PTTL(ctx, "test:client-a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

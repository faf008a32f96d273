//go:build integration

package containers

import (
	"context"
	"testing"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"safenest/internal/platform/config"
	platformredis "safenest/internal/platform/redis"
)

// RedisContainer is a Redis server for session store tests, reached through
// the same client the service uses.
type RedisContainer struct {
	Container *tcredis.RedisContainer
	URL       string
	Client    *platformredis.Client
}

// NewRedisContainer starts Redis and connects the platform client to it.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7.4-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	client, err := platformredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 4})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to redis: %v", err)
	}
	return &RedisContainer{Container: container, URL: url, Client: client}
}

// Reset drops every key so each test starts without sessions.
func (r *RedisContainer) Reset(t *testing.T) {
	t.Helper()
	if err := r.Client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

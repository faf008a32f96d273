package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safenest/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://bad"})
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestNewAndHealth(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestOptionsKeepsDefaultsForZeroValues(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://localhost:6379/2", ReadTimeout: time.Second})
	require.NoError(t, err)

	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Zero(t, opts.PoolSize, "zero pool size leaves the go-redis default")
	assert.Zero(t, opts.DialTimeout)
}

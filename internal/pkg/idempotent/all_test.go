//go:build e2e

package idempotent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisService(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	t.Cleanup(func() {
		client.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis server is not available")
		return
	}

	prefix := fmt.Sprintf("dispatcher:test:%d:", time.Now().UnixNano())
	svc := NewRedisService(client, prefix, time.Minute)

	ok, err := svc.Reserve(ctx, "track-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Reserve(ctx, "track-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, prefix+"track-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	res, err := svc.MReserve(ctx, "track-1", "track-2", "track-3")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true}, res)

	require.NoError(t, svc.Release(ctx, "track-1", "track-2"))
	ok, err = svc.Reserve(ctx, "track-2")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.MReserve(ctx)
	assert.Error(t, err)
}

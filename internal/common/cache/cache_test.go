package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client), mr
}

func TestCacheService_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 2}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestCacheService_DeleteAndExists(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"user:id:1", "user:id:2"} {
		require.NoError(t, c.Set(ctx, k, 1, 0))
	}

	require.NoError(t, c.Delete(ctx, "user:id:1"))
	require.NoError(t, c.Delete(ctx))

	exists, err := c.Exists(ctx, "user:id:1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.Exists(ctx, "user:id:2")
	require.NoError(t, err)
	assert.True(t, exists)
}

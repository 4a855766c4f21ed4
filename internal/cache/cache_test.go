package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "top")
	assert.True(t, IsCacheMiss(err), "пустой кеш даёт промах")

	require.NoError(t, c.Set(ctx, "top", []byte("data"), 0))
	got, err := c.Get(ctx, "top")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	got[0] = 'X'
	again, _ := c.Get(ctx, "top")
	assert.Equal(t, []byte("data"), again, "Get возвращает копию")

	require.NoError(t, c.Delete(ctx, "top"))
	_, err = c.Get(ctx, "top")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := c.Metrics()
	assert.Equal(t, int64(2), m.Hits)
	assert.Equal(t, int64(2), m.Misses)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss, "ключ истекает ровно через TTL")
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Set(context.Background(), "k", nil, 0), ErrClosed)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("MAZE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAZE_TEST_REDIS_ADDR не задан")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, addr, "mazechase:test:cache:", nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNATSInvalidator_IgnoresOwnMessages(t *testing.T) {
	url := os.Getenv("MAZE_TEST_NATS_URL")
	if url == "" {
		t.Skip("MAZE_TEST_NATS_URL не задан")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewNATSInvalidator(url, "maze.test.invalidate", "node-a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewNATSInvalidator(url, "maze.test.invalidate", "node-b")
	require.NoError(t, err)
	defer b.Close()

	var mu sync.Mutex
	var seenA, seenB []string
	require.NoError(t, a.SubscribeInvalidations(ctx, func(key string) error {
		mu.Lock()
		seenA = append(seenA, key)
		mu.Unlock()
		return nil
	}))
	require.NoError(t, b.SubscribeInvalidations(ctx, func(key string) error {
		mu.Lock()
		seenB = append(seenB, key)
		mu.Unlock()
		return nil
	}))

	pctx, pcancel := context.WithTimeout(ctx, 2*time.Second)
	defer pcancel()
	require.NoError(t, a.PublishInvalidation(pctx, "scores:top"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seenB) == 1
	}, 2*time.Second, 10*time.Millisecond, "второй узел получает уведомление")

	mu.Lock()
	assert.Empty(t, seenA, "узел не реагирует на свои уведомления")
	mu.Unlock()
}

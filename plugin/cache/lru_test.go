package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLRUSetGet(t *testing.T) {
	lru := NewLRU(10, time.Minute)

	lru.Set("a", []byte("1"), 0)
	value, ok := lru.Get("a")
	require.True(t, ok)
	require.Equal(t, []byte("1"), value)

	_, ok = lru.Get("missing")
	require.False(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	lru := NewLRU(10, time.Minute)

	lru.Set("a", []byte("1"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := lru.Get("a")
	require.False(t, ok)
	require.Zero(t, lru.Size())
}

func TestLRUEviction(t *testing.T) {
	lru := NewLRU(2, time.Minute)

	lru.Set("a", []byte("1"), 0)
	lru.Set("b", []byte("2"), 0)
	// touch a so b becomes the eviction victim
	_, ok := lru.Get("a")
	require.True(t, ok)

	lru.Set("c", []byte("3"), 0)
	require.Equal(t, 2, lru.Size())

	_, ok = lru.Get("b")
	require.False(t, ok)
	_, ok = lru.Get("a")
	require.True(t, ok)
}

func TestLRUInvalidateExact(t *testing.T) {
	lru := NewLRU(10, time.Minute)

	lru.Set("similar:1:n1", []byte("1"), 0)
	require.Equal(t, 1, lru.Invalidate("similar:1:n1"))
	require.Equal(t, 0, lru.Invalidate("similar:1:n1"))
}

func TestLRUInvalidatePrefix(t *testing.T) {
	lru := NewLRU(10, time.Minute)

	lru.Set("similar:1:n1", []byte("1"), 0)
	lru.Set("similar:1:n2", []byte("2"), 0)
	lru.Set("similar:2:n1", []byte("3"), 0)

	require.Equal(t, 2, lru.Invalidate("similar:1:*"))
	require.Equal(t, 1, lru.Size())

	_, ok := lru.Get("similar:2:n1")
	require.True(t, ok)
}

func TestServiceRoundTrip(t *testing.T) {
	service := NewService(ServiceConfig{Capacity: 10, DefaultTTL: time.Minute, CleanupInterval: time.Hour})
	defer service.Close()

	ctx := context.Background()
	require.NoError(t, service.Set(ctx, "key", []byte("value"), 0))

	got, ok := service.Get(ctx, "key")
	require.True(t, ok)
	require.Equal(t, []byte("value"), got)

	require.NoError(t, service.Invalidate(ctx, "key"))
	_, ok = service.Get(ctx, "key")
	require.False(t, ok)
}

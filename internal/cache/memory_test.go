package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/costdb/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	c := NewMemory(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "stats", []byte(`{"total_items":3}`)))
	val, ok, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"total_items":3}`, string(val))
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	now = now.Add(2 * time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemory_Invalidate(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(config.CacheSettings{TTL: time.Minute})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, isMemory := c.(*Memory)
	assert.True(t, isMemory)
}

func TestNewRedis_MissingAddr(t *testing.T) {
	_, err := NewRedis("", time.Minute)
	assert.Error(t, err)
}

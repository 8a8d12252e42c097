package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type failingStore struct{ *MemoryCache }

var errDown = errors.New("store down")

func (f *failingStore) Set(context.Context, string, any, time.Duration) error { return errDown }

func TestLayeredCache_ReadsThroughSharedTier(t *testing.T) {
	defer goleak.VerifyNone(t)

	shared := NewMemoryCache()
	c := NewLayeredCache(shared)
	defer c.Close()

	ctx := context.Background()
	// written by another replica
	require.NoError(t, shared.Set(ctx, "search:x", quote{Ticker: "BTC", Price: 67000}, time.Minute))

	var got quote
	require.NoError(t, c.Get(ctx, "search:x", &got))
	assert.Equal(t, "BTC", got.Ticker)

	// served locally once copied
	require.NoError(t, shared.Delete(ctx, "search:x"))
	got = quote{}
	require.NoError(t, c.Get(ctx, "search:x", &got))
	assert.Equal(t, 67000.0, got.Price)
}

func TestLayeredCache_LocalCopyExpires(t *testing.T) {
	defer goleak.VerifyNone(t)

	shared := NewMemoryCache()
	c := NewLayeredCache(shared, WithLayeredMemoryTTL(50*time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v1", time.Minute))
	require.NoError(t, shared.Set(ctx, "k", "v2", time.Minute))

	var v string
	require.NoError(t, c.Get(ctx, "k", &v))
	assert.Equal(t, "v1", v)

	time.Sleep(80 * time.Millisecond)
	require.NoError(t, c.Get(ctx, "k", &v))
	assert.Equal(t, "v2", v)
}

func TestLayeredCache_DeleteClearsBothTiers(t *testing.T) {
	defer goleak.VerifyNone(t)

	shared := NewMemoryCache()
	c := NewLayeredCache(shared)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))

	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	assert.ErrorIs(t, shared.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestLayeredCache_SharedWriteFailureSkipsLocal(t *testing.T) {
	defer goleak.VerifyNone(t)

	shared := &failingStore{MemoryCache: NewMemoryCache()}
	c := NewLayeredCache(shared)
	defer c.Close()

	ctx := context.Background()
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), errDown)

	var v string
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
}

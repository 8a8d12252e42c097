package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache puts a small local LRU in front of a shared store. Writes go
// to the shared store first; the local copy lives at most localTTL so other
// replicas' writes become visible within that window.
type LayeredCache struct {
	local     *MemoryCache
	shared    Service
	localSize int
	localTTL  time.Duration
}

func NewLayeredCache(shared Service, opts ...LayeredOption) *LayeredCache {
	lc := &LayeredCache{
		shared:    shared,
		localSize: 500,
		localTTL:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(lc)
	}
	if lc.localTTL <= 0 {
		lc.localTTL = 30 * time.Second
	}
	lc.local = NewMemoryCache(WithMemoryMaxSize(lc.localSize), WithMemoryCleanup(lc.localTTL))
	return lc
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.shared.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, data, lc.localWindow(ttl))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	if err := lc.local.Get(ctx, key, &raw); err == nil {
		return decode(raw, dest)
	}

	if err := lc.shared.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, raw, lc.localTTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.shared.Delete(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	return errors.Join(lc.local.Close(), lc.shared.Close())
}

func (lc *LayeredCache) localWindow(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < lc.localTTL {
		return ttl
	}
	return lc.localTTL
}

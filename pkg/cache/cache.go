// Package cache holds the key/value stores behind ticker search results and
// the saved account: an in-process LRU, Redis, and the two stacked.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is the store contract. Values are JSON-encoded except for string
// and []byte, which are stored as is; a *string dest receives the raw bytes.
type Service interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Remember returns the cached value for key, or computes it with fn and
// stores it for ttl. A failing cache write does not fail the call.
func Remember[T any](ctx context.Context, c Service, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}
	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}

// QueryKey builds "namespace:digest" for free-text input, so "Tesla" and
// " tesla " share an entry and arbitrary user text never lands in a key.
func QueryKey(namespace, query string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest any) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}

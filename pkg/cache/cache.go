package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines cache operations used by the fetch layer.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// GetOrFill returns the cached value for key, or calls fill, caches the
// result, and returns it. fill errors are returned as-is; cache write
// failures are ignored so a dead cache never blocks a fetch.
func GetOrFill[T any](ctx context.Context, c Service, key string, ttl time.Duration, fill func(context.Context) (T, error)) (T, error) {
	var out T
	if c != nil {
		if err := c.Get(ctx, key, &out); err == nil {
			return out, nil
		}
	}

	out, err := fill(ctx)
	if err != nil {
		return out, err
	}

	if c != nil {
		_ = c.Set(ctx, key, out, ttl)
	}
	return out, nil
}

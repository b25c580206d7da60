// Package cache is the cache-aside layer in front of the forecast
// provider. It is a pure accelerator: every implementation may lose or
// expire entries at will, and callers must treat any error as a miss.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when no live entry exists for the key.
var ErrMiss = errors.New("cache miss")

// Cache stores serialized forecast payloads under string keys with a TTL.
// Set must be atomic with respect to Get: a reader never observes a
// half-written payload. Entries are immutable once written and replaced
// wholesale on refresh.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Key builds the cache key for a city. The city string is used as
// received, case preserved: differently-cased requests for the same city
// intentionally occupy separate entries.
func Key(city string) string {
	return "forecasts:" + city
}

// Noop is the backend used when no cache is configured: Get always
// misses and Set discards, so every request falls through to the
// provider.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrMiss
}

func (Noop) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// redisClient is the slice of go-redis used by the cache, so tests can
// substitute scripted replies for a live server.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis is a Cache backed by a Redis server. A circuit breaker wraps
// every command so a dead or flapping backend quickly degrades to
// cache misses instead of stalling request handling on each lookup.
type Redis struct {
	rdb     redisClient
	breaker *gobreaker.CircuitBreaker
	close   func() error
}

// NewRedis connects to the Redis at url (redis:// form) and verifies the
// connection with a bounded ping.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	c := newRedis(rdb)
	c.close = rdb.Close
	return c, nil
}

// newRedis wraps a pre-built client, real or scripted.
func newRedis(rdb redisClient) *Redis {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast-cache",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
	})
	return &Redis{rdb: rdb, breaker: cb}
}

// Get fetches the payload for key. A Redis nil reply is a miss, not a
// backend failure, and does not count against the breaker.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrMiss
	}
	return result.([]byte), nil
}

// Set stores payload under key with the given TTL. Redis SET is atomic,
// so readers observe either the old entry or the full new one.
func (c *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, payload, ttl).Err()
	})
	return err
}

// Close releases the underlying connection pool.
func (c *Redis) Close() error {
	if c.close != nil {
		return c.close()
	}
	return nil
}

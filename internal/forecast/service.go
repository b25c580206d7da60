package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/weatherdemo/resilient-forecast/internal/cache"
	"github.com/weatherdemo/resilient-forecast/internal/stats"
)

// Retry defaults. The backoff base is configurable because the retry
// schedule is base * 2^(attempt-1); everything else is a fixed demo
// parameter.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 200 * time.Millisecond
	DefaultCacheTTL    = 30 * time.Second
)

// RetryExhaustedError is the terminal failure after the full retry
// budget, carrying the last attempt's cause.
type RetryExhaustedError struct {
	City     string
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("forecast for %s failed after %d attempts: %v", e.City, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// Config tunes the Service. Zero values fall back to the defaults above.
type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

// Service is the consumer side of the demo: cache-aside lookup, then a
// bounded retry loop against the provider.
type Service struct {
	provider Provider
	cache    cache.Cache
	stats    *stats.Stats
	log      *slog.Logger

	maxAttempts int
	backoffBase time.Duration
	ttl         time.Duration

	// sleep is swapped out in tests to keep the retry schedule observable
	// without real waiting.
	sleep func(time.Duration)
}

// NewService creates a Service over the given provider, cache backend
// and stats sink.
func NewService(provider Provider, c cache.Cache, st *stats.Stats, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if c == nil {
		c = cache.Noop{}
	}

	return &Service{
		provider:    provider,
		cache:       c,
		stats:       st,
		log:         cfg.Logger,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		ttl:         cfg.CacheTTL,
		sleep:       time.Sleep,
	}
}

// Fetch returns the serialized forecast for city, from cache when a live
// entry exists, otherwise fetched from the provider with retries. The
// returned payload is byte-identical to what was cached, so repeated
// calls within the TTL serve the exact same body. Cache errors degrade
// to misses and are never surfaced.
func (s *Service) Fetch(ctx context.Context, city string) (json.RawMessage, error) {
	key := cache.Key(city)

	payload, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.stats.CacheHit()
		s.log.Debug("cache hit", "city", city, "key", key)
		return payload, nil
	case !errors.Is(err, cache.ErrMiss):
		s.log.Warn("cache unavailable, fetching live", "city", city, "error", err)
	}
	s.stats.CacheMiss()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		days, err := s.provider.RequestForecast(ctx, city, attempt)
		if err == nil {
			s.stats.Attempt(true)
			s.log.Info("fetch succeeded", "city", city, "attempt", attempt, "items", len(days))
			return s.store(ctx, key, city, days)
		}

		s.stats.Attempt(false)
		s.log.Warn("fetch attempt failed", "city", city, "attempt", attempt, "error", err)
		lastErr = err

		// Exhausted budgets propagate immediately; intermediate failures
		// wait out the backoff and try again. The loop always runs its
		// full budget once started; there is no external abort.
		if attempt < s.maxAttempts {
			s.sleep(s.backoff(attempt))
		}
	}

	s.stats.Exhausted()
	return nil, &RetryExhaustedError{City: city, Attempts: s.maxAttempts, Last: lastErr}
}

// store serializes the forecast, caches it best-effort and returns the
// payload. A failed result never reaches this path, so the cache only
// ever holds complete forecasts.
func (s *Service) store(ctx context.Context, key, city string, days []Day) (json.RawMessage, error) {
	payload, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("marshal forecast: %w", err)
	}

	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.log.Warn("cache write failed", "city", city, "key", key, "error", err)
	}
	return payload, nil
}

// backoff implements the canonical exponential schedule
// base * 2^(attempt-1).
func (s *Service) backoff(attempt int) time.Duration {
	return s.backoffBase * time.Duration(math.Pow(2, float64(attempt-1)))
}

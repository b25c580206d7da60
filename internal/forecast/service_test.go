package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdemo/resilient-forecast/internal/cache"
	"github.com/weatherdemo/resilient-forecast/internal/stats"
)

// fakeProvider records attempt numbers and answers via a scripted
// respond func.
type fakeProvider struct {
	attempts []int
	respond  func(attempt int) ([]Day, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) RequestForecast(ctx context.Context, city string, attempt int) ([]Day, error) {
	p.attempts = append(p.attempts, attempt)
	return p.respond(attempt)
}

// brokenCache simulates an unreachable backend on every operation.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache backend down")
}

func (brokenCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return errors.New("cache backend down")
}

func sampleDays() []Day {
	return []Day{{
		Date:         time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		TemperatureC: 12,
		Summary:      "Mild",
		City:         "Seattle",
	}}
}

func newTestService(p Provider, c cache.Cache) (*Service, *[]time.Duration, *stats.Stats) {
	st := stats.New(prometheus.NewRegistry())
	svc := NewService(p, c, st, Config{
		BackoffBase: 10 * time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	sleeps := &[]time.Duration{}
	svc.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return svc, sleeps, st
}

func TestFetchSuccessOnFirstAttemptIsCached(t *testing.T) {
	provider := &fakeProvider{respond: func(int) ([]Day, error) { return sampleDays(), nil }}
	mem := cache.NewMemory()
	svc, sleeps, st := newTestService(provider, mem)

	payload, err := svc.Fetch(context.Background(), "seattle")
	require.NoError(t, err)

	var days []Day
	require.NoError(t, json.Unmarshal(payload, &days))
	require.Len(t, days, 1)
	assert.Equal(t, "Seattle", days[0].City)

	assert.Equal(t, []int{1}, provider.attempts, "success on attempt 1 makes no further calls")
	assert.Empty(t, *sleeps)

	// The cached entry is byte-identical to the returned payload, under
	// the raw-cased key.
	cached, err := mem.Get(context.Background(), cache.Key("seattle"))
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), cached)

	snap := st.Snapshot()
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.Attempts)
}

func TestFetchServesCacheHitWithoutProviderCall(t *testing.T) {
	provider := &fakeProvider{respond: func(int) ([]Day, error) { return sampleDays(), nil }}
	svc, _, st := newTestService(provider, cache.NewMemory())

	first, err := svc.Fetch(context.Background(), "seattle")
	require.NoError(t, err)

	second, err := svc.Fetch(context.Background(), "seattle")
	require.NoError(t, err)

	assert.Equal(t, []byte(first), []byte(second))
	assert.Equal(t, []int{1}, provider.attempts, "second fetch must not hit the provider")
	assert.Equal(t, int64(1), st.Snapshot().CacheHits)
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	provider := &fakeProvider{respond: func(attempt int) ([]Day, error) {
		return nil, &Fault{City: "Boston", Attempt: attempt, Kind: FaultServiceUnavailable}
	}}
	mem := cache.NewMemory()
	svc, sleeps, st := newTestService(provider, mem)

	_, err := svc.Fetch(context.Background(), "Boston")
	require.Error(t, err)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "Boston", exhausted.City)
	assert.Equal(t, 3, exhausted.Attempts)

	// The terminal error carries the last attempt's cause.
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, 3, fault.Attempt)

	assert.Equal(t, []int{1, 2, 3}, provider.attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *sleeps,
		"doubling schedule from the base, no wait after the final attempt")

	assert.Equal(t, 0, mem.Len(), "failed results are never cached")

	snap := st.Snapshot()
	assert.Equal(t, int64(3), snap.Failures)
	assert.Equal(t, int64(1), snap.Exhausted)
}

func TestFetchTransientFailureThenSuccess(t *testing.T) {
	// Real simulated provider with a scripted source: Phoenix fails
	// deterministically on attempt 1, then the 0.9 draw clears attempt 2.
	provider := NewSimulated(DefaultRegistry(), &scriptedRand{floats: []float64{0.0, 0.9}})
	mem := cache.NewMemory()
	svc, sleeps, _ := newTestService(provider, mem)

	payload, err := svc.Fetch(context.Background(), "Phoenix")
	require.NoError(t, err)

	var days []Day
	require.NoError(t, json.Unmarshal(payload, &days))
	assert.Len(t, days, DayCount)

	assert.Len(t, *sleeps, 1, "one backoff wait between the two attempts")

	_, err = mem.Get(context.Background(), cache.Key("Phoenix"))
	assert.NoError(t, err, "recovered fetch is cached")
}

func TestFetchDegradesWhenCacheUnavailable(t *testing.T) {
	provider := &fakeProvider{respond: func(int) ([]Day, error) { return sampleDays(), nil }}
	svc, _, st := newTestService(provider, brokenCache{})

	payload, err := svc.Fetch(context.Background(), "seattle")
	require.NoError(t, err, "cache errors must never fail the fetch")
	assert.NotEmpty(t, payload)
	assert.Equal(t, []int{1}, provider.attempts)
	assert.Equal(t, int64(1), st.Snapshot().CacheMisses)
}

func TestFetchCacheKeyPreservesRequestCase(t *testing.T) {
	provider := &fakeProvider{respond: func(int) ([]Day, error) { return sampleDays(), nil }}
	mem := cache.NewMemory()
	svc, _, _ := newTestService(provider, mem)

	_, err := svc.Fetch(context.Background(), "SeAttle")
	require.NoError(t, err)

	_, err = mem.Get(context.Background(), cache.Key("SeAttle"))
	assert.NoError(t, err)

	// Differently-cased requests occupy separate entries.
	_, err = mem.Get(context.Background(), cache.Key("seattle"))
	assert.ErrorIs(t, err, cache.ErrMiss)
}

// Package stats tracks fetch and cache counters for the serving
// component. The counters live on an injected Stats value rather than
// package globals, so tests and multiple servers do not share state.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stats owns the service counters. Increments are atomic and mirrored
// into Prometheus; Snapshot gives a consistent-enough point-in-time read
// for the stats endpoint.
type Stats struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	successes   atomic.Int64
	failures    atomic.Int64
	exhausted   atomic.Int64

	promCacheHits   prometheus.Counter
	promCacheMisses prometheus.Counter
	promAttempts    *prometheus.CounterVec
	promExhausted   prometheus.Counter
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	CacheHits   int64 `json:"cacheHits"`
	CacheMisses int64 `json:"cacheMisses"`
	Attempts    int64 `json:"attempts"`
	Failures    int64 `json:"failedAttempts"`
	Exhausted   int64 `json:"retriesExhausted"`
}

// New creates a Stats registered with reg.
func New(reg prometheus.Registerer) *Stats {
	factory := promauto.With(reg)
	return &Stats{
		promCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_cache_hits_total",
			Help: "Forecast requests served from the cache.",
		}),
		promCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_cache_misses_total",
			Help: "Forecast requests that fell through to the provider.",
		}),
		promAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_fetch_attempts_total",
			Help: "Provider fetch attempts by outcome.",
		}, []string{"outcome"}),
		promExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_fetch_exhausted_total",
			Help: "Fetches that failed after the full retry budget.",
		}),
	}
}

func (s *Stats) CacheHit() {
	s.cacheHits.Add(1)
	s.promCacheHits.Inc()
}

func (s *Stats) CacheMiss() {
	s.cacheMisses.Add(1)
	s.promCacheMisses.Inc()
}

// Attempt records one provider call and its outcome.
func (s *Stats) Attempt(success bool) {
	if success {
		s.successes.Add(1)
		s.promAttempts.WithLabelValues("success").Inc()
		return
	}
	s.failures.Add(1)
	s.promAttempts.WithLabelValues("failure").Inc()
}

// Exhausted records a fetch that consumed the whole retry budget.
func (s *Stats) Exhausted() {
	s.exhausted.Add(1)
	s.promExhausted.Inc()
}

// Snapshot reads the current counter values.
func (s *Stats) Snapshot() Snapshot {
	successes := s.successes.Load()
	failures := s.failures.Load()
	return Snapshot{
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
		Attempts:    successes + failures,
		Failures:    failures,
		Exhausted:   s.exhausted.Load(),
	}
}

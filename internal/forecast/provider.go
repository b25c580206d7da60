package forecast

import (
	"context"
	"sync"
)

// Provider abstracts the forecast backend the orchestrator fetches from.
// The attempt number is part of the contract so fault decisions stay a
// pure function of the request instead of hidden provider state.
type Provider interface {
	Name() string
	RequestForecast(ctx context.Context, city string, attempt int) ([]Day, error)
}

// Simulated is the demo backend: a fault injector in front of a mock
// forecast generator. It is stateless across calls except for the shared
// random source, which a mutex guards because math/rand sources are not
// safe for concurrent use.
type Simulated struct {
	name     string
	registry *Registry
	gen      *Generator

	mu  sync.Mutex
	rng Rand
}

// NewSimulated creates the simulated provider. A nil rng seeds one from
// the clock, matching NewGenerator.
func NewSimulated(registry *Registry, rng Rand) *Simulated {
	gen := NewGenerator(rng)
	return &Simulated{
		name:     "simulated",
		registry: registry,
		gen:      gen,
		rng:      gen.rng,
	}
}

func (p *Simulated) Name() string {
	return p.name
}

// RequestForecast resolves the city against the registry, consults the
// fault table and, on success, generates a fresh DayCount-day forecast.
// On a fault nothing is generated; the caller gets the typed error only.
func (p *Simulated) RequestForecast(ctx context.Context, city string, attempt int) ([]Day, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := p.registry.Lookup(city)

	p.mu.Lock()
	defer p.mu.Unlock()

	if fault := Decide(resolved.Name, attempt, p.rng.Float64()); fault != nil {
		return nil, fault
	}

	return p.gen.Forecast(resolved, DayCount), nil
}

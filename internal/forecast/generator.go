package forecast

import (
	"math/rand"
	"time"
)

// Rand is the subset of math/rand used by the generator and the fault
// injector. Tests supply deterministic implementations to pin down branch
// outcomes.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Generator produces mock multi-day forecasts for a city's temperature
// range. It is pure given a fixed random source.
type Generator struct {
	rng Rand
	now func() time.Time
}

// NewGenerator creates a Generator. A nil rng gets a time-seeded source.
func NewGenerator(rng Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng, now: time.Now}
}

// Forecast generates days forecast entries for the city, one per day
// offset starting at tomorrow. Temperatures are drawn uniformly from
// [MinTemp, MaxTemp), summaries uniformly from Summaries.
func (g *Generator) Forecast(city City, days int) []Day {
	base := g.now().UTC()

	out := make([]Day, 0, days)
	for offset := 1; offset <= days; offset++ {
		out = append(out, Day{
			Date:         base.AddDate(0, 0, offset),
			TemperatureC: city.MinTemp + g.rng.Intn(city.MaxTemp-city.MinTemp),
			Summary:      Summaries[g.rng.Intn(len(Summaries))],
			City:         city.Name,
		})
	}
	return out
}

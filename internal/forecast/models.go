package forecast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayCount is the fixed length of every forecast response.
const DayCount = 5

// Summaries is the fixed ordered set of condition labels a generated day
// may carry. The generator picks one uniformly at random per day.
var Summaries = [10]string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// City describes a registered location and its plausible temperature range.
// MinTemp must be strictly below MaxTemp; generated temperatures fall in
// [MinTemp, MaxTemp).
type City struct {
	Name    string
	MinTemp int
	MaxTemp int
}

// Day is a single day of a forecast response.
// TemperatureF is derived from TemperatureC at serialization time and is
// never stored, so the two can not diverge.
type Day struct {
	Date         time.Time `json:"date"`
	TemperatureC int       `json:"temperatureC"`
	Summary      string    `json:"summary"`
	City         string    `json:"city"`
}

// TemperatureF converts the Celsius temperature with the classic
// truncating demo formula.
func (d Day) TemperatureF() int {
	return 32 + int(float64(d.TemperatureC)/0.5556)
}

func (d Day) MarshalJSON() ([]byte, error) {
	type alias Day
	return json.Marshal(struct {
		alias
		TemperatureF int `json:"temperatureF"`
	}{alias(d), d.TemperatureF()})
}

// Registry is the static set of cities the service knows about. It is
// built once at startup and read-only afterwards.
type Registry struct {
	cities   []City
	fallback City
}

// NewRegistry builds a registry from the given cities. The first city is
// the fallback returned for unknown names.
func NewRegistry(cities ...City) *Registry {
	if len(cities) == 0 {
		panic("forecast: registry needs at least one city")
	}
	for _, c := range cities {
		if c.MinTemp >= c.MaxTemp {
			panic(fmt.Sprintf("forecast: city %s has invalid temperature range [%d, %d)",
				c.Name, c.MinTemp, c.MaxTemp))
		}
	}
	return &Registry{cities: cities, fallback: cities[0]}
}

// DefaultRegistry returns the demo city set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		City{Name: "Seattle", MinTemp: -5, MaxTemp: 25},
		City{Name: "Boston", MinTemp: -10, MaxTemp: 30},
		City{Name: "Phoenix", MinTemp: 10, MaxTemp: 45},
		City{Name: "Miami", MinTemp: 15, MaxTemp: 35},
		City{Name: "Denver", MinTemp: -15, MaxTemp: 30},
	)
}

// Lookup resolves a city name case-insensitively. Unknown names resolve to
// the registry fallback rather than an error; the demo never rejects a
// request for an unregistered city.
func (r *Registry) Lookup(name string) City {
	for _, c := range r.cities {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return r.fallback
}

// Cities returns the registered city names, in registration order.
func (r *Registry) Cities() []string {
	names := make([]string, 0, len(r.cities))
	for _, c := range r.cities {
		names = append(names, c.Name)
	}
	return names
}

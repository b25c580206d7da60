package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistryRejectsInvalidRange(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(City{Name: "Flatland", MinTemp: 5, MaxTemp: 5})
	}, "MinTemp must be strictly below MaxTemp")

	assert.Panics(t, func() {
		NewRegistry(City{Name: "Inverted", MinTemp: 10, MaxTemp: -10})
	})

	assert.Panics(t, func() {
		NewRegistry()
	}, "registry needs at least one city")
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"Boston", "boston", "BOSTON", "bOsToN"} {
		assert.Equal(t, "Boston", r.Lookup(name).Name)
	}
}

func TestRegistryLookupUnknownFallsBack(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, "Seattle", r.Lookup("atlantis").Name)
}

func TestDefaultRegistryRangesAreValid(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range r.Cities() {
		c := r.Lookup(name)
		assert.Less(t, c.MinTemp, c.MaxTemp, "city %s", name)
	}
}

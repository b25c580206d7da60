package forecast

import "fmt"

// FaultKind classifies an injected provider failure.
type FaultKind string

const (
	// FaultServiceUnavailable is a permanent failure; no retry will ever
	// succeed for the affected city.
	FaultServiceUnavailable FaultKind = "service_unavailable"

	// FaultTransient is an attempt-dependent or probabilistic failure that
	// is expected to clear on a later attempt.
	FaultTransient FaultKind = "transient_error"
)

// transientFailRate is the probability that Phoenix fails again on
// attempts after the first.
const transientFailRate = 0.5

// Fault is a typed provider failure carrying the inputs that produced it.
// The provider never returns a partial forecast alongside a Fault.
type Fault struct {
	City    string
	Attempt int
	Kind    FaultKind
}

func (f *Fault) Error() string {
	return fmt.Sprintf("simulated %s for %s on attempt %d", f.Kind, f.City, f.Attempt)
}

// Decide is the fault-injection rule table as a pure function of city,
// attempt number and a uniform [0,1) draw. It holds no cross-request
// state:
//
//	Boston   -> service_unavailable on every attempt
//	Phoenix  -> transient_error on attempt 1, then with probability 0.5
//	others   -> success (nil)
//
// City matching is on the registry-resolved name.
func Decide(city string, attempt int, draw float64) *Fault {
	switch city {
	case "Boston":
		return &Fault{City: city, Attempt: attempt, Kind: FaultServiceUnavailable}
	case "Phoenix":
		if attempt == 1 || draw < transientFailRate {
			return &Fault{City: city, Attempt: attempt, Kind: FaultTransient}
		}
	}
	return nil
}

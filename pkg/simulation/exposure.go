package simulation

import (
	"math"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// Exposure returns the probability that sender infects receiver over a
// single arc of the given trust. Fact-checkers neither send nor receive.
func Exposure(sender, receiver graph.Node, trust float64) float64 {
	if !sender.Spreads() || !receiver.Susceptible() {
		return 0
	}
	return receiver.Credulity * sender.TendencyToShare * trust
}

// Combine merges independent exposures of one receiver within a timestep
// into a single infection probability, 1 - Π(1 - p).
func Combine(ps []float64) float64 {
	switch len(ps) {
	case 0:
		return 0
	case 1:
		return clamp(ps[0])
	}

	prodNo := 1.0
	for _, p := range ps {
		prodNo *= 1 - clamp(p)
	}

	// Many small exposures leave prodNo near 1, where 1-prodNo cancels badly.
	if prodNo > 0.5 {
		sum := 0.0
		for _, p := range ps {
			sum += math.Log1p(-clamp(p))
		}
		return clamp(-math.Expm1(sum))
	}
	return clamp(1 - prodNo)
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p <= 0:
		return 0
	case p >= 1:
		return 1
	default:
		return p
	}
}

package simulation

import (
	"math/rand/v2"
	"slices"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

const golden = 0x9e3779b97f4a7c15

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// NewRand returns a PCG generator seeded from a single 64-bit seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix64(seed)))
}

// DeriveSeed returns the seed of run i of a batch started from base. Distinct
// indices give unrelated streams, so batch runs never share randomness.
func DeriveSeed(base uint64, i int) uint64 {
	return splitmix64(base + uint64(i+1)*golden)
}

// SampleInitial draws k distinct non fact-checker nodes, returned in graph
// order.
func SampleInitial(g *graph.Graph, k int, rng *rand.Rand) ([]graph.NodeID, error) {
	eligible := g.Eligible()
	if k < 0 {
		return nil, configError("random_initial", "", "must be non-negative, got %d", k)
	}
	if k > len(eligible) {
		return nil, configError("random_initial", "", "%d seeds requested but only %d eligible nodes", k, len(eligible))
	}

	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	picked := eligible[:k]
	slices.SortFunc(picked, func(a, b graph.NodeID) int {
		return g.Index(a) - g.Index(b)
	})
	return picked, nil
}

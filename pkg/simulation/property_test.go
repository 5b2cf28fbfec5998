package simulation

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// randomGraph builds a small random graph entirely determined by seed.
func randomGraph(seed uint64) (*graph.Graph, []graph.NodeID) {
	rng := NewRand(seed)
	n := 2 + rng.IntN(14)

	b := graph.NewBuilder(rng.IntN(2) == 0)
	for i := 0; i < n; i++ {
		identity := "anonymous"
		if rng.IntN(2) == 0 {
			identity = "verified"
		}
		b.AddNode(graph.NodeSpec{
			ID:              graph.NodeID(fmt.Sprintf("n%d", i)),
			IdentityType:    identity,
			Credulity:       graph.Prob(rng.Float64()),
			TendencyToShare: graph.Prob(rng.Float64()),
			FactChecker:     rng.IntN(6) == 0,
		})
	}
	for e := rng.IntN(3 * n); e > 0; e-- {
		spec := graph.EdgeSpec{
			Source: graph.NodeID(fmt.Sprintf("n%d", rng.IntN(n))),
			Target: graph.NodeID(fmt.Sprintf("n%d", rng.IntN(n))),
		}
		if rng.IntN(3) > 0 {
			spec.Trust = graph.Prob(rng.Float64())
		}
		b.AddEdge(spec)
	}

	g, err := b.Build(graph.StandardDefaults())
	if err != nil {
		panic(err)
	}

	var seeds []graph.NodeID
	for _, id := range g.Eligible() {
		if rng.IntN(3) == 0 {
			seeds = append(seeds, id)
		}
	}
	return g, seeds
}

func runRandom(graphSeed, runSeed uint64, steps int) (*graph.Graph, *Result) {
	g, seeds := randomGraph(graphSeed)
	e, err := NewEngine(g, Config{InitialInfected: seeds, NumTimesteps: steps},
		NewSeededDecider(runSeed), WithRunID("prop"), WithExposureTrace())
	if err != nil {
		panic(err)
	}
	res, err := e.Run()
	if err != nil {
		panic(err)
	}
	return g, res
}

// TestCascadeInvariants checks properties that hold for every run on every graph.
func TestCascadeInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("infection times match the records", prop.ForAll(
		func(graphSeed, runSeed uint64, steps int) bool {
			_, res := runRandom(graphSeed, runSeed, steps)

			for _, id := range res.Initial {
				if res.InfectionTimes[id] != 0 {
					return false
				}
			}
			count := len(res.Initial)
			for _, rec := range res.Records {
				for _, id := range rec.NewlyInfected {
					if res.InfectionTimes[id] != rec.Timestep {
						return false
					}
				}
				count += len(rec.NewlyInfected)
			}
			return count == len(res.InfectionTimes) && count == len(res.Final)
		},
		gen.UInt64(), gen.UInt64(), gen.IntRange(0, 12),
	))

	properties.Property("totals are monotone and newly infected sets are disjoint", prop.ForAll(
		func(graphSeed, runSeed uint64, steps int) bool {
			_, res := runRandom(graphSeed, runSeed, steps)

			seen := make(map[graph.NodeID]bool)
			for _, id := range res.Initial {
				seen[id] = true
			}
			prev := len(res.Initial)
			for i, rec := range res.Records {
				if rec.Timestep != i+1 || rec.TotalInfected < prev {
					return false
				}
				if rec.TotalInfected != prev+len(rec.NewlyInfected) {
					return false
				}
				for _, id := range rec.NewlyInfected {
					if seen[id] {
						return false
					}
					seen[id] = true
				}
				prev = rec.TotalInfected
			}
			return len(res.Records) == steps
		},
		gen.UInt64(), gen.UInt64(), gen.IntRange(0, 12),
	))

	properties.Property("fact-checkers are never infected nor exposed", prop.ForAll(
		func(graphSeed, runSeed uint64) bool {
			g, res := runRandom(graphSeed, runSeed, 8)

			for id := range res.InfectionTimes {
				if n, _ := g.Node(id); n.FactChecker {
					return false
				}
			}
			for _, rec := range res.Records {
				for _, ev := range rec.Exposures {
					from, _ := g.Node(ev.From)
					to, _ := g.Node(ev.To)
					if from.FactChecker || to.FactChecker || ev.Probability <= 0 {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.Property("every new infection has an earlier infected in-neighbour", prop.ForAll(
		func(graphSeed, runSeed uint64) bool {
			g, res := runRandom(graphSeed, runSeed, 8)

			for _, rec := range res.Records {
				for _, id := range rec.NewlyInfected {
					ok := false
					for _, arc := range g.InArcs(id) {
						if t, infected := res.InfectionTimes[arc.Source]; infected && t < rec.Timestep {
							ok = true
							break
						}
					}
					if !ok {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.Property("same seed gives the same run", prop.ForAll(
		func(graphSeed, runSeed uint64) bool {
			_, a := runRandom(graphSeed, runSeed, 10)
			_, b := runRandom(graphSeed, runSeed, 10)
			return reflect.DeepEqual(a, b)
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.Property("combined probability is at least the largest exposure", prop.ForAll(
		func(ps []float64) bool {
			c := Combine(ps)
			if c < 0 || c > 1 {
				return false
			}
			for _, p := range ps {
				if c < p {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}

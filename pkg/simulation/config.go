package simulation

import (
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// Config describes one run over an already built graph.
type Config struct {
	InitialInfected   []graph.NodeID `json:"initial_infected"`
	NumTimesteps      int            `json:"num_timesteps"`
	StopOnConvergence bool           `json:"stop_on_convergence,omitempty"`
	RecordExposures   bool           `json:"record_exposures,omitempty"`
}

// Validate checks cfg against g and returns the seed set with duplicates
// removed, in the order first listed.
func (c Config) Validate(g *graph.Graph) ([]graph.NodeID, error) {
	if c.NumTimesteps < 0 {
		return nil, configError("num_timesteps", "", "must be non-negative, got %d", c.NumTimesteps)
	}

	seen := make(map[graph.NodeID]struct{}, len(c.InitialInfected))
	seeds := make([]graph.NodeID, 0, len(c.InitialInfected))
	for _, id := range c.InitialInfected {
		n, ok := g.Node(id)
		if !ok {
			return nil, configError("initial_infected", string(id), "node not in graph")
		}
		if n.FactChecker {
			return nil, configError("initial_infected", string(id), "fact-checkers cannot be infected")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		seeds = append(seeds, id)
	}
	return seeds, nil
}

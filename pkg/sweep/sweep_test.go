package sweep

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// star builds a hub exposing n leaves with probability p each.
func star(t *testing.T, n int, p float64) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(true).
		AddNode(graph.NodeSpec{ID: "hub", TendencyToShare: graph.Prob(1)}).
		AddNode(graph.NodeSpec{ID: "fc", FactChecker: true})
	for i := 0; i < n; i++ {
		id := graph.NodeID(fmt.Sprintf("leaf%d", i))
		b.AddNode(graph.NodeSpec{ID: id, Credulity: graph.Prob(1)})
		b.AddEdge(graph.EdgeSpec{Source: "hub", Target: id, Trust: graph.Prob(p)})
	}
	b.AddEdge(graph.EdgeSpec{Source: "hub", Target: "fc", Trust: graph.Prob(1)})
	g, err := b.Build(graph.StandardDefaults())
	require.NoError(t, err)
	return g
}

func TestRun_Summary(t *testing.T) {
	g := star(t, 20, 0.5)
	cfg := simulation.Config{InitialInfected: []graph.NodeID{"hub"}, NumTimesteps: 1}

	s, err := Run(context.Background(), g, cfg, Options{Runs: 40, Workers: 4, BaseSeed: 9})
	require.NoError(t, err)

	assert.NotEmpty(t, s.SweepID)
	assert.Equal(t, 40, s.Requested)
	assert.Equal(t, 40, s.Completed)
	assert.Zero(t, s.Failed)
	assert.False(t, s.Cancelled)
	require.Len(t, s.Runs, 40)

	assert.LessOrEqual(t, s.MinFinalInfected, s.MaxFinalInfected)
	assert.GreaterOrEqual(t, s.MeanFinalInfected, float64(s.MinFinalInfected))
	assert.LessOrEqual(t, s.MeanFinalInfected, float64(s.MaxFinalInfected))

	require.Len(t, s.MeanTotalInfected, 2)
	assert.Equal(t, 1.0, s.MeanTotalInfected[0])
	assert.InDelta(t, s.MeanFinalInfected, s.MeanTotalInfected[1], 1e-9)

	assert.Equal(t, 1.0, s.InfectionFrequency["hub"])
	assert.NotContains(t, s.InfectionFrequency, graph.NodeID("fc"))
	assert.Equal(t, 21, s.Reachable)
}

func TestRun_ReproducibleAcrossWorkerCounts(t *testing.T) {
	g := star(t, 15, 0.3)
	cfg := simulation.Config{InitialInfected: []graph.NodeID{"hub"}, NumTimesteps: 2}

	one, err := Run(context.Background(), g, cfg, Options{Runs: 25, Workers: 1, BaseSeed: 1234})
	require.NoError(t, err)
	many, err := Run(context.Background(), g, cfg, Options{Runs: 25, Workers: 8, BaseSeed: 1234})
	require.NoError(t, err)

	for i := range one.Runs {
		assert.Equal(t, one.Runs[i].Seed, many.Runs[i].Seed)
		assert.Equal(t, one.Runs[i].FinalInfected, many.Runs[i].FinalInfected, "run %d", i)
	}
	assert.Equal(t, one.InfectionFrequency, many.InfectionFrequency)
}

func TestRun_RandomInitial(t *testing.T) {
	g := star(t, 10, 0)
	cfg := simulation.Config{NumTimesteps: 3}

	s, err := Run(context.Background(), g, cfg, Options{Runs: 10, Workers: 2, BaseSeed: 5, RandomInitial: 2})
	require.NoError(t, err)
	assert.Equal(t, 10, s.Completed)
	assert.Equal(t, 2, s.MinFinalInfected, "zero trust: only the seeds end up infected")
	assert.Equal(t, 2, s.MaxFinalInfected)
	assert.Zero(t, s.Reachable)
	assert.NotContains(t, s.InfectionFrequency, graph.NodeID("fc"))

	_, err = Run(context.Background(), g, cfg, Options{Runs: 1, RandomInitial: 100})
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestRun_InvalidOptions(t *testing.T) {
	g := star(t, 2, 1)
	cfg := simulation.Config{InitialInfected: []graph.NodeID{"hub"}, NumTimesteps: 1}

	_, err := Run(context.Background(), g, cfg, Options{Runs: 0})
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)

	_, err = Run(context.Background(), g, simulation.Config{InitialInfected: []graph.NodeID{"fc"}}, Options{Runs: 1})
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestRun_Cancelled(t *testing.T) {
	g := star(t, 5, 1)
	cfg := simulation.Config{InitialInfected: []graph.NodeID{"hub"}, NumTimesteps: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Run(ctx, g, cfg, Options{Runs: 10, Workers: 2})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, s)
	assert.True(t, s.Cancelled)
	assert.Zero(t, s.Completed)
	assert.Empty(t, s.Runs)
}

func TestRun_RecordsMetrics(t *testing.T) {
	g := star(t, 3, 1)
	cfg := simulation.Config{InitialInfected: []graph.NodeID{"hub"}, NumTimesteps: 1}
	reg := metrics.NewRegistry()

	_, err := Run(context.Background(), g, cfg, Options{Runs: 4, Workers: 2, Metrics: reg})
	require.NoError(t, err)

	families, err := reg.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["misinfo_sweeps_total"])
	assert.Equal(t, 4.0, values["misinfo_sweep_runs_total"])
	assert.Equal(t, 4.0, values["misinfo_runs_total"])
}

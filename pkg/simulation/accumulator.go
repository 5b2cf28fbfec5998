package simulation

import (
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// accumulator collects step records append-only and freezes them into a
// Result once the engine finishes.
type accumulator struct {
	res      Result
	finished bool
}

func newAccumulator(runID string, numTimesteps int) *accumulator {
	return &accumulator{res: Result{
		RunID:          runID,
		NumTimesteps:   numTimesteps,
		Records:        []StepRecord{},
		InfectionTimes: make(map[graph.NodeID]int),
	}}
}

func (a *accumulator) seed(ids []graph.NodeID) {
	a.res.Initial = append([]graph.NodeID{}, ids...)
	for _, id := range ids {
		a.res.InfectionTimes[id] = 0
	}
}

func (a *accumulator) record(rec StepRecord) {
	for _, id := range rec.NewlyInfected {
		a.res.InfectionTimes[id] = rec.Timestep
	}
	a.res.Records = append(a.res.Records, rec)
}

func (a *accumulator) finish(g *graph.Graph, converged bool) {
	a.finished = true
	a.res.Converged = converged
	a.res.Final = make([]graph.NodeID, 0, len(a.res.InfectionTimes))
	for _, id := range g.IDs() {
		if _, ok := a.res.InfectionTimes[id]; ok {
			a.res.Final = append(a.res.Final, id)
		}
	}
}

func (a *accumulator) result() (*Result, error) {
	if !a.finished {
		return nil, &InvalidStateError{Op: "result", State: StateRunning}
	}
	return a.res.clone(), nil
}

package simulation

import (
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
)

// Result is the trace of a finished run. Seeds carry infection time 0 and
// never appear in Records.
type Result struct {
	RunID          string               `json:"run_id"`
	NumTimesteps   int                  `json:"num_timesteps"`
	Converged      bool                 `json:"converged"`
	Initial        []graph.NodeID       `json:"initial_infected"`
	Final          []graph.NodeID       `json:"final_infected"`
	InfectionTimes map[graph.NodeID]int `json:"infection_times"`
	Records        []StepRecord         `json:"records"`
}

// TimeSeriesRow is one line of the infection curve.
type TimeSeriesRow struct {
	Timestep      int `json:"timestep"`
	NewlyInfected int `json:"newly_infected"`
	TotalInfected int `json:"total_infected"`
}

func (r *Result) clone() *Result {
	out := *r
	out.Initial = append([]graph.NodeID{}, r.Initial...)
	out.Final = append([]graph.NodeID{}, r.Final...)
	out.InfectionTimes = make(map[graph.NodeID]int, len(r.InfectionTimes))
	for id, t := range r.InfectionTimes {
		out.InfectionTimes[id] = t
	}
	out.Records = make([]StepRecord, len(r.Records))
	for i, rec := range r.Records {
		rec.NewlyInfected = append([]graph.NodeID{}, rec.NewlyInfected...)
		if rec.Exposures != nil {
			rec.Exposures = append([]ExposureEvent(nil), rec.Exposures...)
		}
		out.Records[i] = rec
	}
	return &out
}

// InitialInfected returns a copy of the seed set.
func (r *Result) InitialInfected() []graph.NodeID {
	return append([]graph.NodeID(nil), r.Initial...)
}

// FinalInfected returns a copy of the final infected set in graph order.
func (r *Result) FinalInfected() []graph.NodeID {
	return append([]graph.NodeID(nil), r.Final...)
}

// InfectionTime returns when id was infected.
func (r *Result) InfectionTime(id graph.NodeID) (int, bool) {
	t, ok := r.InfectionTimes[id]
	return t, ok
}

// Timesteps returns the number of executed timesteps.
func (r *Result) Timesteps() int {
	return len(r.Records)
}

// InfectedAt returns the nodes infected at or before timestep t, in final
// set order.
func (r *Result) InfectedAt(t int) []graph.NodeID {
	out := make([]graph.NodeID, 0, len(r.Final))
	for _, id := range r.Final {
		if r.InfectionTimes[id] <= t {
			out = append(out, id)
		}
	}
	return out
}

// TimeSeries returns the infection curve starting with the seed row at t=0.
func (r *Result) TimeSeries() []TimeSeriesRow {
	rows := make([]TimeSeriesRow, 0, len(r.Records)+1)
	rows = append(rows, TimeSeriesRow{
		Timestep:      0,
		NewlyInfected: len(r.Initial),
		TotalInfected: len(r.Initial),
	})
	for _, rec := range r.Records {
		rows = append(rows, TimeSeriesRow{
			Timestep:      rec.Timestep,
			NewlyInfected: len(rec.NewlyInfected),
			TotalInfected: rec.TotalInfected,
		})
	}
	return rows
}

package api

import (
	"github.com/dd0wney/misinfo-cascade/pkg/config"
	"github.com/dd0wney/misinfo-cascade/pkg/loader"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// SimulationRequest asks for one run over an inline graph. Config keys the
// request omits take the server's defaults.
type SimulationRequest struct {
	Graph  loader.Document         `json:"graph"`
	Config config.SimulationConfig `json:"config"`
}

// SimulationResponse carries a finished run.
type SimulationResponse struct {
	RunID      string                     `json:"run_id"`
	Seed       uint64                     `json:"seed"`
	Nodes      int                        `json:"nodes"`
	Arcs       int                        `json:"arcs"`
	Result     *simulation.Result         `json:"result"`
	TimeSeries []simulation.TimeSeriesRow `json:"time_series"`
}

// SweepRequest asks for a batch of runs. Zero values take the server's
// sweep defaults.
type SweepRequest struct {
	Graph    loader.Document         `json:"graph"`
	Config   config.SimulationConfig `json:"config"`
	Runs     int                     `json:"runs,omitempty"`
	Workers  int                     `json:"workers,omitempty"`
	BaseSeed *uint64                 `json:"base_seed,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

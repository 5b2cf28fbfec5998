package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dd0wney/misinfo-cascade/pkg/api/middleware"
	"github.com/dd0wney/misinfo-cascade/pkg/config"
	"github.com/dd0wney/misinfo-cascade/pkg/export"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/loader"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
	"github.com/dd0wney/misinfo-cascade/pkg/sweep"
)

// ExportFilename names the archive returned by the export endpoint.
const ExportFilename = "simulation_metrics.zip"

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	_, resp, err := s.simulate(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	g, resp, err := s.simulate(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Build the archive first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteZip(&buf, g, resp.Result); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	w.Header().Set("X-Run-ID", resp.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	req := SweepRequest{Config: s.cfg.Simulation.Clone()}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := req.Config.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := buildGraph(&req.Graph, &req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cfg := simulation.Config{
		InitialInfected:   req.Config.Seeds(g),
		NumTimesteps:      req.Config.NumTimesteps,
		StopOnConvergence: req.Config.StopOnConvergence,
	}

	opts := sweep.Options{
		Runs:          req.Runs,
		Workers:       req.Workers,
		RandomInitial: req.Config.RandomInitial,
		Logger:        s.logger,
		Metrics:       s.metricsRegistry,
	}
	if opts.Runs == 0 {
		opts.Runs = s.cfg.Sweep.Runs
	}
	if opts.Workers == 0 {
		opts.Workers = s.cfg.Sweep.Workers
	}
	switch {
	case req.BaseSeed != nil:
		opts.BaseSeed = *req.BaseSeed
	case s.cfg.Sweep.BaseSeed != nil:
		opts.BaseSeed = *s.cfg.Sweep.BaseSeed
	default:
		opts.BaseSeed = req.Config.ResolveSeed()
	}

	s.active.Add(1)
	summary, err := sweep.Run(r.Context(), g, cfg, opts)
	s.active.Add(-1)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

// simulate decodes a SimulationRequest over the server's defaults and runs
// it to completion. The graph it ran over is returned alongside.
func (s *Server) simulate(r *http.Request) (*graph.Graph, *SimulationResponse, error) {
	req := SimulationRequest{Config: s.cfg.Simulation.Clone()}
	if err := decodeJSON(r, &req); err != nil {
		return nil, nil, err
	}
	if err := req.Config.Validate(); err != nil {
		return nil, nil, err
	}

	g, err := buildGraph(&req.Graph, &req.Config)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := req.Config.EngineConfig(g)
	if err != nil {
		return nil, nil, err
	}

	seed := req.Config.ResolveSeed()
	engine, err := simulation.NewEngine(g, cfg, simulation.NewSeededDecider(seed),
		simulation.WithLogger(s.logger),
		simulation.WithMetrics(s.metricsRegistry),
		simulation.WithRunID(middleware.GetRequestID(r)))
	if err != nil {
		return nil, nil, err
	}
	s.active.Add(1)
	res, err := engine.Run()
	s.active.Add(-1)
	if err != nil {
		return nil, nil, err
	}

	return g, &SimulationResponse{
		RunID:      res.RunID,
		Seed:       seed,
		Nodes:      g.Len(),
		Arcs:       g.ArcCount(),
		Result:     res,
		TimeSeries: res.TimeSeries(),
	}, nil
}

func buildGraph(doc *loader.Document, cfg *config.SimulationConfig) (*graph.Graph, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc.Build(cfg.Defaults())
}

// decodeJSON reads a single JSON document. Unknown node attributes are
// ignored, as they are when loading from disk.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return maxErr
		}
		return &badRequestError{err: err}
	}
	return nil
}

// badRequestError marks a body that could not be decoded.
type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return "invalid request body: " + e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.Path(r.URL.Path),
			logging.String("request_id", middleware.GetRequestID(r)),
			logging.Error(err))
		message = "internal error"
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:     kind,
		Message:   message,
		Code:      status,
		RequestID: middleware.GetRequestID(r),
	})
}

// classify maps an error onto an HTTP status and a short error kind.
func classify(err error) (int, string) {
	var maxErr *http.MaxBytesError
	var badReq *badRequestError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.As(err, &badReq):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, graph.ErrInvalidGraph):
		return http.StatusBadRequest, "invalid_graph"
	case errors.Is(err, simulation.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_config"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

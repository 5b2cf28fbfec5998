// Package api exposes the simulator over HTTP: single runs, CSV exports,
// batch sweeps, health and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/misinfo-cascade/pkg/api/middleware"
	"github.com/dd0wney/misinfo-cascade/pkg/config"
	"github.com/dd0wney/misinfo-cascade/pkg/health"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
)

// Server represents the HTTP API server
type Server struct {
	cfg             *config.Config
	logger          logging.Logger
	metricsRegistry *metrics.Registry
	health          *health.HealthChecker
	startTime       time.Time
	version         string

	// active counts simulations and sweeps currently executing
	active atomic.Int64
}

// NewServer creates a new API server. A nil registry gets a private one.
func NewServer(cfg *config.Config, logger logging.Logger, registry *metrics.Registry, version string) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	s := &Server{
		cfg:             cfg,
		logger:          logger.With(logging.Component("api")),
		metricsRegistry: registry,
		startTime:       time.Now(),
		version:         version,
	}
	s.health = s.newHealthChecker()
	return s
}

func (s *Server) newHealthChecker() *health.HealthChecker {
	hc := health.NewHealthChecker(s.startTime, s.version)

	activeRuns := health.ActiveRunsCheck(s.active.Load, int64(s.cfg.Server.MaxActiveRuns))
	defaults := health.ErrorCheck("defaults", func() error {
		return s.cfg.Simulation.Defaults().Validate()
	})

	hc.RegisterCheck("memory", health.MemoryCheck(health.RuntimeMemory))
	hc.RegisterCheck("active_runs", activeRuns)
	hc.RegisterCheck("defaults", defaults)
	hc.RegisterReadinessCheck("active_runs", activeRuns)
	hc.RegisterReadinessCheck("defaults", defaults)
	hc.RegisterLivenessCheck("process", health.SimpleCheck("process"))
	return hc
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.HTTPHandler())
	mux.HandleFunc("GET /health/ready", s.health.ReadinessHandler())
	mux.HandleFunc("GET /health/live", s.health.LivenessHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metricsRegistry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /simulations", s.handleSimulate)
	mux.HandleFunc("POST /simulations/export", s.handleExport)
	mux.HandleFunc("POST /sweeps", s.handleSweep)

	var h http.Handler = mux
	h = middleware.BodySizeLimit(s.cfg.Server.MaxBodyBytes)(h)
	h = middleware.Metrics(s.metricsRegistry)(h)
	h = middleware.Logging(s.logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.PanicRecovery(s.logger)(h)
	return h
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go s.updateMetricsPeriodically(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// updateMetricsPeriodically refreshes process gauges every 10 seconds
func (s *Server) updateMetricsPeriodically(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	s.metricsRegistry.UpdateSystemMetrics(s.startTime)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metricsRegistry.UpdateSystemMetrics(s.startTime)
		}
	}
}

// Package config loads the simulator's settings from a YAML file, the
// environment and built-in defaults, in increasing order of precedence:
// defaults, then file, then environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
	"github.com/dd0wney/misinfo-cascade/pkg/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MISINFO_"

// Config is the full settings tree.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Sweep      SweepConfig      `yaml:"sweep" json:"sweep"`
}

// SimulationConfig carries the per-run options. Unset probabilities fall
// back to the standard defaults.
type SimulationConfig struct {
	InitialInfected []string `yaml:"initial_infected,omitempty" json:"initial_infected,omitempty"`
	NumTimesteps    int      `yaml:"num_timesteps" json:"num_timesteps"`
	Seed            *uint64  `yaml:"seed,omitempty" json:"seed,omitempty"`

	DefaultTrustAnonymous *float64 `yaml:"default_trust_anonymous,omitempty" json:"default_trust_anonymous,omitempty"`
	DefaultTrustVerified  *float64 `yaml:"default_trust_verified,omitempty" json:"default_trust_verified,omitempty"`

	// DefaultTendencyToShare applies to both identity types unless the
	// per-identity value is set.
	DefaultTendencyToShare   *float64 `yaml:"default_tendency_to_share,omitempty" json:"default_tendency_to_share,omitempty"`
	DefaultTendencyAnonymous *float64 `yaml:"default_tendency_anonymous,omitempty" json:"default_tendency_anonymous,omitempty"`
	DefaultTendencyVerified  *float64 `yaml:"default_tendency_verified,omitempty" json:"default_tendency_verified,omitempty"`
	DefaultCredulity         *float64 `yaml:"default_credulity,omitempty" json:"default_credulity,omitempty"`

	RandomInitial     int  `yaml:"random_initial,omitempty" json:"random_initial,omitempty"`
	StopOnConvergence bool `yaml:"stop_on_convergence,omitempty" json:"stop_on_convergence,omitempty"`
	RecordExposures   bool `yaml:"record_exposures,omitempty" json:"record_exposures,omitempty"`
}

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes"`

	// MaxActiveRuns marks the service degraded and not ready once this many
	// simulations or sweeps execute at once. Zero disables the threshold.
	MaxActiveRuns int `yaml:"max_active_runs" json:"max_active_runs"`
}

// SweepConfig configures batch runs.
type SweepConfig struct {
	Runs     int     `yaml:"runs" json:"runs"`
	Workers  int     `yaml:"workers" json:"workers"`
	BaseSeed *uint64 `yaml:"base_seed,omitempty" json:"base_seed,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{NumTimesteps: 10},
		Logging:    LoggingConfig{Level: "info", Format: string(logging.FormatJSON)},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    32 << 20,
			MaxActiveRuns:   16,
		},
		Sweep: SweepConfig{Runs: 100, Workers: 4},
	}
}

// Load builds the configuration from path (optional), then the environment,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from MISINFO_* variables.
func (c *Config) ApplyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = n
	}
	seed := func(key string, dst **uint64) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = &n
	}

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("ADDR", &c.Server.Addr)
	integer("NUM_TIMESTEPS", &c.Simulation.NumTimesteps)
	integer("RANDOM_INITIAL", &c.Simulation.RandomInitial)
	seed("SEED", &c.Simulation.Seed)
	integer("SWEEP_RUNS", &c.Sweep.Runs)
	integer("SWEEP_WORKERS", &c.Sweep.Workers)
	seed("SWEEP_BASE_SEED", &c.Sweep.BaseSeed)

	if v := os.Getenv(EnvPrefix + "INITIAL_INFECTED"); v != "" {
		c.Simulation.InitialInfected = splitAndTrim(v, ",")
	}

	return errors.Join(errs...)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	return validation.NewConfigValidator("config").
		OneOf("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "warning", "error"}).
		OneOf("logging.format", c.Logging.Format, []string{string(logging.FormatJSON), string(logging.FormatText)}).
		Required("server.addr", c.Server.Addr).
		MinDuration("server.read_timeout", c.Server.ReadTimeout, time.Second).
		MinDuration("server.write_timeout", c.Server.WriteTimeout, time.Second).
		NonNegative("server.max_active_runs", c.Server.MaxActiveRuns).
		RangeInt("sweep.runs", c.Sweep.Runs, 1, validation.MaxSweepRuns).
		NonNegative("sweep.workers", c.Sweep.Workers).
		Validate()
}

// Validate checks the run options independently of any graph.
func (s *SimulationConfig) Validate() error {
	err := validation.NewConfigValidator("simulation").
		RangeInt("num_timesteps", s.NumTimesteps, 0, validation.MaxTimesteps).
		NonNegative("random_initial", s.RandomInitial).
		OptionalProbability("default_trust_anonymous", s.DefaultTrustAnonymous).
		OptionalProbability("default_trust_verified", s.DefaultTrustVerified).
		OptionalProbability("default_tendency_to_share", s.DefaultTendencyToShare).
		OptionalProbability("default_tendency_anonymous", s.DefaultTendencyAnonymous).
		OptionalProbability("default_tendency_verified", s.DefaultTendencyVerified).
		OptionalProbability("default_credulity", s.DefaultCredulity).
		When(s.RandomInitial > 0, func(cv *validation.ConfigValidator) {
			cv.Custom("initial_infected", func() error {
				if len(s.InitialInfected) > 0 {
					return errors.New("cannot be combined with random_initial")
				}
				return nil
			})
		}).
		Validate()
	if err != nil {
		return &simulation.InvalidConfigError{Field: "simulation", Cause: err}
	}
	return nil
}

// Clone returns a deep copy, safe to decode a request over.
func (s SimulationConfig) Clone() SimulationConfig {
	out := s
	out.InitialInfected = append([]string(nil), s.InitialInfected...)
	for _, p := range []**float64{
		&out.DefaultTrustAnonymous, &out.DefaultTrustVerified,
		&out.DefaultTendencyToShare, &out.DefaultTendencyAnonymous,
		&out.DefaultTendencyVerified, &out.DefaultCredulity,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	if s.Seed != nil {
		seed := *s.Seed
		out.Seed = &seed
	}
	return out
}

// Defaults resolves the graph defaults, applying the shared tendency before
// the per-identity overrides.
func (s *SimulationConfig) Defaults() graph.Defaults {
	d := graph.StandardDefaults()
	if s.DefaultTrustAnonymous != nil {
		d.TrustAnonymous = *s.DefaultTrustAnonymous
	}
	if s.DefaultTrustVerified != nil {
		d.TrustVerified = *s.DefaultTrustVerified
	}
	if s.DefaultTendencyToShare != nil {
		d.TendencyAnonymous = *s.DefaultTendencyToShare
		d.TendencyVerified = *s.DefaultTendencyToShare
	}
	if s.DefaultTendencyAnonymous != nil {
		d.TendencyAnonymous = *s.DefaultTendencyAnonymous
	}
	if s.DefaultTendencyVerified != nil {
		d.TendencyVerified = *s.DefaultTendencyVerified
	}
	if s.DefaultCredulity != nil {
		d.Credulity = *s.DefaultCredulity
	}
	return d
}

// ResolveSeed returns the configured seed, choosing and remembering a
// random one when none is set so the run can be reproduced later.
func (s *SimulationConfig) ResolveSeed() uint64 {
	if s.Seed == nil {
		seed := rand.Uint64()
		s.Seed = &seed
	}
	return *s.Seed
}

// Seeds returns the configured initial infected set. When none is
// configured the first node of g that is not a fact-checker seeds the
// cascade alone; a graph without such a node yields no seeds.
func (s *SimulationConfig) Seeds(g *graph.Graph) []graph.NodeID {
	if len(s.InitialInfected) == 0 {
		if eligible := g.Eligible(); len(eligible) > 0 {
			return eligible[:1]
		}
		return []graph.NodeID{}
	}
	ids := make([]graph.NodeID, len(s.InitialInfected))
	for i, id := range s.InitialInfected {
		ids[i] = graph.NodeID(id)
	}
	return ids
}

// EngineConfig converts the options into a run over g, drawing random seeds
// when random_initial is set and falling back to Seeds otherwise.
func (s *SimulationConfig) EngineConfig(g *graph.Graph) (simulation.Config, error) {
	cfg := simulation.Config{
		NumTimesteps:      s.NumTimesteps,
		StopOnConvergence: s.StopOnConvergence,
		RecordExposures:   s.RecordExposures,
	}

	if s.RandomInitial > 0 {
		seeds, err := simulation.SampleInitial(g, s.RandomInitial, simulation.NewRand(^s.ResolveSeed()))
		if err != nil {
			return simulation.Config{}, err
		}
		cfg.InitialInfected = seeds
		return cfg, nil
	}

	cfg.InitialInfected = s.Seeds(g)
	if _, err := cfg.Validate(g); err != nil {
		return simulation.Config{}, err
	}
	return cfg, nil
}

// Logger builds the logger described by the logging section.
func (l LoggingConfig) Logger(w io.Writer) logging.Logger {
	return logging.New(w, logging.ParseLevel(l.Level), logging.Format(l.Format))
}

// splitAndTrim splits a string and drops empty parts
func splitAndTrim(s string, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

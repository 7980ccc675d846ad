// Package settings models the engine's runtime options table and loads it
// the way the teacher's pkg/config does: defaults first, then an optional
// YAML file, then environment variables, each layer overriding the last,
// via github.com/knadh/koanf/v2.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PIPELINEOPT_"

// Settings models the options table: spec §6's recognized options plus the
// ambient knobs (concurrency, caching) SPEC_FULL.md's engine facade adds.
type Settings struct {
	EnablePressureConstraints     bool               `koanf:"enable_pressure_constraints"`
	EnableCompressorStations      bool               `koanf:"enable_compressor_stations"`
	MaxSolutionTimeSeconds        int                `koanf:"max_solution_time_seconds"`
	OptimalityTolerance           float64            `koanf:"optimality_tolerance"`
	FeasibilityTolerance          float64            `koanf:"feasibility_tolerance"`
	UseLinearPressureApproximation bool              `koanf:"use_linear_pressure_approximation"`
	LinearApproximationSegments   int                `koanf:"linear_approximation_segments"`
	PreferredSolver               string             `koanf:"preferred_solver"`
	MinimumFlowThreshold          float64            `koanf:"minimum_flow_threshold"`
	ValidateNetworkBeforeOptimization bool           `koanf:"validate_network_before_optimization"`
	AlgorithmParameters           map[string]float64 `koanf:"algorithm_parameters"`
	MaxConcurrency                int                `koanf:"max_concurrency"`
	CacheRedisAddr                string             `koanf:"cache_redis_addr"`
	CacheEnabled                   bool              `koanf:"cache_enabled"`
	CacheTTL                       time.Duration     `koanf:"cache_ttl"`
}

// SolutionTimeLimit returns MaxSolutionTimeSeconds as a time.Duration.
func (s *Settings) SolutionTimeLimit() time.Duration {
	return time.Duration(s.MaxSolutionTimeSeconds) * time.Second
}

// AlgorithmParameterOr returns a named algorithm parameter or fallback if
// unset.
func (s *Settings) AlgorithmParameterOr(key string, fallback float64) float64 {
	if s.AlgorithmParameters == nil {
		return fallback
	}
	if v, ok := s.AlgorithmParameters[key]; ok {
		return v
	}
	return fallback
}

// Defaults returns the cited defaults from spec §6 and §9.
func Defaults() *Settings {
	return &Settings{
		EnablePressureConstraints:         false,
		EnableCompressorStations:          true,
		MaxSolutionTimeSeconds:            300,
		OptimalityTolerance:               1e-6,
		FeasibilityTolerance:              1e-6,
		UseLinearPressureApproximation:    true,
		LinearApproximationSegments:       10,
		PreferredSolver:                   "simplex",
		MinimumFlowThreshold:              0.01,
		ValidateNetworkBeforeOptimization: true,
		AlgorithmParameters: map[string]float64{
			"fuel_cost_per_mmscf":      2.50,
			"compressor_cost_per_psi":  0.001,
			"max_paths_per_delivery":   64,
			"max_enumeration_depth":    0, // 0 means "network node count" at call time
			"min_throughput_when_active": 10.0,
		},
		MaxConcurrency: 4,
		CacheEnabled:   false,
		CacheTTL:       5 * time.Minute,
	}
}

// Loader layers defaults, an optional YAML file, and environment variables,
// mirroring pkg/config.Loader's three-tier precedence.
type Loader struct {
	k          *koanf.Koanf
	configPath string
	envPrefix  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPath overrides the YAML config file path searched for.
func WithConfigPath(path string) LoaderOption {
	return func(l *Loader) { l.configPath = path }
}

// WithEnvPrefix overrides the environment-variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.envPrefix = prefix }
}

// NewLoader returns a Loader ready to Load.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{k: koanf.New("."), envPrefix: envPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves defaults, then the config file (if present), then
// environment variables, in that precedence order.
func (l *Loader) Load() (*Settings, error) {
	defaults := Defaults()
	flat := map[string]any{
		"enable_pressure_constraints":          defaults.EnablePressureConstraints,
		"enable_compressor_stations":           defaults.EnableCompressorStations,
		"max_solution_time_seconds":            defaults.MaxSolutionTimeSeconds,
		"optimality_tolerance":                 defaults.OptimalityTolerance,
		"feasibility_tolerance":                defaults.FeasibilityTolerance,
		"use_linear_pressure_approximation":    defaults.UseLinearPressureApproximation,
		"linear_approximation_segments":        defaults.LinearApproximationSegments,
		"preferred_solver":                     defaults.PreferredSolver,
		"minimum_flow_threshold":               defaults.MinimumFlowThreshold,
		"validate_network_before_optimization": defaults.ValidateNetworkBeforeOptimization,
		"max_concurrency":                      defaults.MaxConcurrency,
		"cache_enabled":                        defaults.CacheEnabled,
		"cache_ttl":                            defaults.CacheTTL,
	}
	if err := l.k.Load(confmap.Provider(flat, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			if err := l.k.Load(file.Provider(l.configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
			}
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	out := *defaults
	if err := l.k.Unmarshal("", &out); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if out.AlgorithmParameters == nil {
		out.AlgorithmParameters = defaults.AlgorithmParameters
	}
	return &out, nil
}

// Load loads settings using default search paths and environment prefix.
func Load() (*Settings, error) {
	return NewLoader().Load()
}

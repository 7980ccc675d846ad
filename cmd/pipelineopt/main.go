// Command pipelineopt is the CLI entry point for the pipeline flow
// optimization engine: it loads a network JSON file and runtime settings,
// runs one algorithm (or a batch of named scenarios) through internal/engine,
// and writes the resulting OptimizationResult JSON to stdout.
//
// Usage:
//
//	pipelineopt -network net.json -algorithm throughput
//	pipelineopt -network net.json -algorithm mincost -config config.yaml
//	pipelineopt -batch scenarios.json
//	pipelineopt -metrics-port 9090 -network net.json -algorithm balance
//	pipelineopt -trace -network net.json
//
// Configuration is loaded the way the teacher's services load it: defaults,
// then an optional YAML file, then PIPELINEOPT_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/engine"
	"gaspipeline/internal/obslog"
	"gaspipeline/internal/optimize"
	"gaspipeline/internal/rescache"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
	"gaspipeline/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		networkPath = flag.String("network", "", "path to a network JSON file (required unless -batch is given)")
		batchPath   = flag.String("batch", "", "path to a batch scenario JSON file ({name, algorithm, network}[])")
		algorithm   = flag.String("algorithm", "throughput", "algorithm name: throughput, mincost, or balance")
		trace       = flag.Bool("trace", false, "run the upstream flow tracer pre-flight check on -network and exit, without optimizing")
		configPath  = flag.String("config", "", "optional YAML settings file")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
		metricsPort = flag.Int("metrics-port", 0, "if set, also serve Prometheus metrics on this port while the run executes")
	)
	flag.Parse()

	obslog.Init(*logLevel)

	s, err := settings.NewLoader(settings.WithConfigPath(*configPath)).Load()
	if err != nil {
		obslog.Error("failed to load settings", "error", err)
		return 1
	}

	var metrics *telemetry.Metrics
	if s.CacheEnabled || *metricsPort != 0 {
		metrics = telemetry.Get()
	}
	if *metricsPort != 0 {
		go func() {
			if err := telemetry.StartServer(*metricsPort); err != nil {
				obslog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	cache, err := buildCache(s)
	if err != nil {
		obslog.Warn("cache unavailable, continuing without it", "error", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	e := engine.New(optimize.New(), cache, metrics)
	ctx := context.Background()

	switch {
	case *trace && *networkPath != "":
		return runTrace(e, *networkPath)
	case *batchPath != "":
		return runBatch(ctx, e, s, *batchPath)
	case *networkPath != "":
		return runSingle(ctx, e, s, *networkPath, *algorithm)
	default:
		fmt.Fprintln(os.Stderr, "pipelineopt: one of -network or -batch is required")
		flag.Usage()
		return 2
	}
}

// runTrace runs the upstream flow tracer pre-flight check over the network
// at path and writes it as JSON, without invoking any optimization
// algorithm. Exit code reflects IsNetworkFeasible, the way runSingle's exit
// code reflects the optimizer's solved status.
func runTrace(e *engine.Engine, path string) int {
	n, err := loadNetwork(path)
	if err != nil {
		obslog.Error("failed to load network", "path", path, "error", err)
		return 1
	}
	r := e.Trace(n)
	if err := writeJSON(os.Stdout, r); err != nil {
		obslog.Error("failed to write trace result", "error", err)
		return 1
	}
	if !r.IsNetworkFeasible {
		return 1
	}
	return 0
}

// buildCache returns nil (no error) when caching is disabled, a Redis-backed
// cache when CacheRedisAddr is set, or an in-process cache otherwise.
func buildCache(s *settings.Settings) (rescache.Cache, error) {
	if !s.CacheEnabled {
		return nil, nil
	}
	opts := rescache.DefaultOptions()
	opts.DefaultTTL = s.CacheTTL
	if s.CacheRedisAddr != "" {
		opts.Backend = rescache.BackendRedis
		opts.RedisAddr = s.CacheRedisAddr
	}
	return rescache.New(opts)
}

func runSingle(ctx context.Context, e *engine.Engine, s *settings.Settings, networkPath, algorithm string) int {
	n, err := loadNetwork(networkPath)
	if err != nil {
		obslog.Error("failed to load network", "path", networkPath, "error", err)
		return 1
	}

	r := e.Optimize(ctx, n, algorithm, s)
	if err := writeJSON(os.Stdout, r); err != nil {
		obslog.Error("failed to write result", "error", err)
		return 1
	}
	if !isSolved(r.Status) {
		return 1
	}
	return 0
}

// isSolved reports whether a result status represents a usable solution
// (exact optimum or a feasible-but-not-proven-optimal solve).
func isSolved(status result.Status) bool {
	return status == result.StatusOptimal || status == result.StatusFeasible
}

// scenarioFile is the on-disk shape of a -batch input: each entry names a
// scenario, the algorithm to run it with, and either an inline network or a
// path to one.
type scenarioFile struct {
	Name        string          `json:"name"`
	Algorithm   string          `json:"algorithm"`
	NetworkPath string          `json:"networkPath,omitempty"`
	Network     *domain.Network `json:"network,omitempty"`
}

func runBatch(ctx context.Context, e *engine.Engine, s *settings.Settings, batchPath string) int {
	raw, err := os.ReadFile(batchPath)
	if err != nil {
		obslog.Error("failed to read batch file", "path", batchPath, "error", err)
		return 1
	}
	var entries []scenarioFile
	if err := json.Unmarshal(raw, &entries); err != nil {
		obslog.Error("failed to parse batch file", "path", batchPath, "error", err)
		return 1
	}

	scenarios := make([]engine.ScenarioRequest, 0, len(entries))
	for _, entry := range entries {
		n := entry.Network
		if n == nil && entry.NetworkPath != "" {
			loaded, err := loadNetwork(entry.NetworkPath)
			if err != nil {
				obslog.Error("failed to load scenario network", "scenario", entry.Name, "error", err)
				return 1
			}
			n = loaded
		}
		scenarios = append(scenarios, engine.ScenarioRequest{Name: entry.Name, Network: n, Algorithm: entry.Algorithm})
	}

	results := e.BatchOptimize(ctx, scenarios, s)
	if err := writeJSON(os.Stdout, results); err != nil {
		obslog.Error("failed to write batch results", "error", err)
		return 1
	}

	failed := 0
	for _, r := range results {
		if !isSolved(r.Result.Status) {
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func loadNetwork(path string) (*domain.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n := domain.NewNetwork("")
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("parse network %s: %w", path, err)
	}
	return n, nil
}

func writeJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

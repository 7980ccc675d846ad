package engine

import (
	"context"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"

	"golang.org/x/sync/errgroup"
)

// ScenarioRequest names one network variant to optimize in a batch run.
type ScenarioRequest struct {
	Name      string
	Network   *domain.Network
	Algorithm string
}

// ScenarioResult pairs a ScenarioRequest's name with its optimization
// result, preserving the request's input order regardless of completion
// order.
type ScenarioResult struct {
	Name   string
	Result *result.OptimizationResult
}

// BatchOptimize runs every scenario concurrently, bounded by
// Settings.MaxConcurrency, and returns results in the same order the
// scenarios were given. One scenario's panic or error never aborts the
// others — each result.OptimizationResult carries its own status.
func (e *Engine) BatchOptimize(ctx context.Context, scenarios []ScenarioRequest, s *settings.Settings) []ScenarioResult {
	out := make([]ScenarioResult, len(scenarios))

	limit := s.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			out[i] = ScenarioResult{Name: sc.Name, Result: e.Optimize(gctx, sc.Network, sc.Algorithm, s)}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Package engine is the facade that ties network validation, the
// internal/optimize algorithm registry, result caching, and metrics
// together into the single entry point external callers use.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gaspipeline/internal/apperr"
	"gaspipeline/internal/domain"
	"gaspipeline/internal/obslog"
	"gaspipeline/internal/optimize"
	"gaspipeline/internal/rescache"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
	"gaspipeline/internal/telemetry"
	"gaspipeline/internal/tracer"

	"github.com/google/uuid"
)

// Engine wraps an algorithm registry with pre/post-solve validation,
// result caching, and metrics recording. The zero value is not usable;
// construct with New.
type Engine struct {
	registry *optimize.Registry
	cache    rescache.Cache
	metrics  *telemetry.Metrics
}

// New returns an Engine over registry. cache and metrics may be nil, in
// which case caching and metrics recording are skipped.
func New(registry *optimize.Registry, cache rescache.Cache, metrics *telemetry.Metrics) *Engine {
	return &Engine{registry: registry, cache: cache, metrics: metrics}
}

// Optimize runs one algorithm against one network, the single entry point
// every external caller (CLI, batch runner) funnels through. A panic inside
// the algorithm or solver is recovered and reported as a CodeInternal
// Error-status result rather than crashing the caller, per spec §7 item 6.
func (e *Engine) Optimize(ctx context.Context, n *domain.Network, algorithmName string, s *settings.Settings) (r *result.OptimizationResult) {
	runID := uuid.NewString()
	log := obslog.WithRun(runID, algorithmName)

	defer func() {
		if p := recover(); p != nil {
			log.Error("optimization panicked", "panic", p)
			r = result.NewNotSolved(result.StatusError, algorithmName, fmt.Sprintf("internal error: %v", p))
			r.ValidationErrors = []*apperr.Error{apperr.New(apperr.CodeInternal, fmt.Sprintf("recovered panic: %v", p))}
		}
		if r != nil {
			r.RunID = runID
		}
	}()

	if s.ValidateNetworkBeforeOptimization {
		if errs := n.Validate(); len(errs) > 0 {
			log.Warn("network failed pre-optimization validation", "errorCount", len(errs))
			r := result.NewNotSolved(result.StatusError, algorithmName, "network failed pre-optimization validation")
			r.ValidationErrors = errs
			return r
		}
	}

	alg, ok := e.registry.Get(algorithmName)
	if !ok {
		r := result.NewNotSolved(result.StatusError, algorithmName, "unknown algorithm: "+algorithmName)
		r.ValidationErrors = []*apperr.Error{apperr.New(apperr.CodeUnknownAlgorithm, "unknown algorithm: "+algorithmName)}
		return r
	}
	if !alg.CanHandle(n, s) {
		r := result.NewNotSolved(result.StatusError, algorithmName, algorithmName+" cannot handle this network")
		r.ValidationErrors = []*apperr.Error{apperr.New(apperr.CodeAlgorithmMismatch, algorithmName+" cannot handle this network")}
		return r
	}

	cacheKey := ""
	if s.CacheEnabled && e.cache != nil {
		cacheKey = rescache.BuildResultKey(rescache.NetworkHash(n), algorithmName, s.AlgorithmParameters)
		if cached, ok := e.lookupCache(ctx, cacheKey); ok {
			log.Info("served optimization result from cache")
			return cached
		}
	}

	start := time.Now()
	r = alg.Optimize(ctx, n, s)
	duration := time.Since(start)
	log.Info("optimization finished", "status", r.Status.String(), "durationMs", duration.Milliseconds())

	if errs := postValidate(n, s); len(errs) > 0 {
		r.ValidationErrors = append(r.ValidationErrors, errs...)
	}

	if e.metrics != nil {
		e.metrics.RecordOptimization(algorithmName, r.Status.String(), duration, r.Metrics.TotalThroughput, r.Costs.Total)
		e.metrics.RecordNetworkSize(algorithmName, len(n.PointsSorted()), len(n.ActiveSegments()))
		for _, b := range r.Metrics.Bottlenecks {
			e.metrics.RecordBottlenecks(b.Severity.String(), 1)
		}
	}

	if cacheKey != "" && (r.Status == result.StatusOptimal || r.Status == result.StatusFeasible) {
		e.storeCache(ctx, cacheKey, r, s.CacheTTL)
	}

	return r
}

// Trace runs the upstream flow tracer's pre-flight feasibility check over n,
// independent of any optimizer and usable on a network that has never been
// solved. Spec §4.6 lists this alongside dispatch and post-solution
// validation as one of the facade's responsibilities; it is exposed as its
// own method rather than folded into Optimize because callers want it
// before committing to a solve, not after.
func (e *Engine) Trace(n *domain.Network) *tracer.NetworkResult {
	return tracer.TraceAllDeliveries(n)
}

func (e *Engine) lookupCache(ctx context.Context, key string) (*result.OptimizationResult, bool) {
	raw, err := e.cache.Get(ctx, key)
	hit := err == nil
	if e.metrics != nil {
		e.metrics.RecordCacheLookup(hit)
	}
	if !hit {
		return nil, false
	}
	var r result.OptimizationResult
	if err := json.Unmarshal(raw, &r); err != nil {
		obslog.Warn("cache entry unmarshal failed, ignoring", "key", key, "error", err)
		return nil, false
	}
	return &r, true
}

func (e *Engine) storeCache(ctx context.Context, key string, r *result.OptimizationResult, ttl time.Duration) {
	raw, err := json.Marshal(r)
	if err != nil {
		obslog.Warn("result marshal for cache failed", "key", key, "error", err)
		return
	}
	if err := e.cache.Set(ctx, key, raw, ttl); err != nil {
		obslog.Warn("cache store failed", "key", key, "error", err)
	}
}

// postValidate checks the spec §8 conservation and capacity invariants
// against the solved network, grounded on the teacher's post-solve
// ValidateFlowLogic pass: never trust a solver blindly, re-derive the
// properties it promised.
func postValidate(n *domain.Network, s *settings.Settings) []*apperr.Error {
	var errs []*apperr.Error
	eps := s.FeasibilityTolerance
	if eps <= 0 {
		eps = domain.Epsilon
	}

	for _, seg := range n.ActiveSegments() {
		if seg.CurrentFlow > seg.Capacity+eps {
			errs = append(errs, apperr.New(apperr.CodeCapacityOverflow,
				fmt.Sprintf("segment %s flow %.4f exceeds capacity %.4f", seg.ID, seg.CurrentFlow, seg.Capacity)))
		}
		if seg.CurrentFlow < seg.MinFlow-eps {
			errs = append(errs, apperr.New(apperr.CodeNegativeFlow,
				fmt.Sprintf("segment %s flow %.4f is below its minimum %.4f", seg.ID, seg.CurrentFlow, seg.MinFlow)))
		}
	}

	for _, p := range n.PointsSorted() {
		if !p.IsActive {
			continue
		}
		var netFlow float64
		for _, from := range n.Incoming(p.ID) {
			if seg, ok := n.GetSegment(from, p.ID); ok {
				netFlow += seg.CurrentFlow
			}
		}
		for _, to := range n.Outgoing(p.ID) {
			if seg, ok := n.GetSegment(p.ID, to); ok {
				netFlow -= seg.CurrentFlow
			}
		}

		switch p.Type {
		case domain.PointTypeReceipt:
			if -netFlow > p.SupplyCapacity+eps {
				errs = append(errs, apperr.New(apperr.CodeConservationViolation,
					fmt.Sprintf("receipt %s outflow %.4f exceeds supply capacity %.4f", p.ID, -netFlow, p.SupplyCapacity)))
			}
		case domain.PointTypeDelivery:
			if netFlow > p.DemandRequirement+eps {
				errs = append(errs, apperr.New(apperr.CodeConservationViolation,
					fmt.Sprintf("delivery %s inflow %.4f exceeds demand requirement %.4f", p.ID, netFlow, p.DemandRequirement)))
			}
		default:
			if netFlow > eps || netFlow < -eps {
				errs = append(errs, apperr.New(apperr.CodeConservationViolation,
					fmt.Sprintf("pass-through point %s has non-zero net flow %.4f", p.ID, netFlow)))
			}
		}
	}

	return errs
}

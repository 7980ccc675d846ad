package optimize

import (
	"context"
	"sort"
	"time"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/graph"
	"gaspipeline/internal/pressure"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
	"gaspipeline/internal/solver"
)

// Throughput implements spec §4.4.1: maximize total flow delivered, with
// configurable weights on receipt outflow and delivery inflow.
type Throughput struct{}

// NewThroughput returns a ready-to-use Throughput algorithm.
func NewThroughput() *Throughput { return &Throughput{} }

func (t *Throughput) Name() string { return "throughput" }

func (t *Throughput) Description() string {
	return "Maximizes gas delivered from active receipts to active deliveries, capped at demand."
}

func (t *Throughput) Parameters() map[string]string {
	return map[string]string{
		"throughput_weight": "Objective weight on receipt outflow (default 1.0)",
		"demand_priority":   "Objective weight on delivery inflow (default 1.0)",
	}
}

// CanHandle requires at least one active segment and one active receipt,
// per spec §4.4.4.
func (t *Throughput) CanHandle(n *domain.Network, s *settings.Settings) bool {
	return len(n.ActiveSegments()) > 0 && len(n.ActivePointsByType(domain.PointTypeReceipt)) > 0
}

func (t *Throughput) Optimize(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	if !t.CanHandle(n, s) {
		return result.NewNotSolved(result.StatusError, t.Name(), "throughput: network has no active segment or active receipt")
	}
	if s.PreferredSolver == "graph" {
		return t.viaGraph(n, s)
	}
	return t.viaSolver(ctx, n, s)
}

// viaSolver builds the §4.4.1 solver formulation: maximize
// Σ_{e out of receipts} throughput_weight·f_e + Σ_{e into deliveries}
// demand_priority·f_e, subject to the shared conservation/pressure/
// compressor constraints with delivery inflow capped at demand.
func (t *Throughput) viaSolver(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	m := buildFlowModel(n, s, demandCapped)

	throughputWeight := s.AlgorithmParameterOr("throughput_weight", 1.0)
	demandPriority := s.AlgorithmParameterOr("demand_priority", 1.0)

	objCoeffs := make(map[solver.VarID]float64)
	for _, p := range n.ActivePointsByType(domain.PointTypeReceipt) {
		for _, to := range n.Outgoing(p.ID) {
			if seg, ok := n.GetSegment(p.ID, to); ok {
				if v, ok := m.flowVar[seg.ID]; ok {
					objCoeffs[v] += throughputWeight
				}
			}
		}
	}
	for _, p := range n.ActivePointsByType(domain.PointTypeDelivery) {
		for _, from := range n.Incoming(p.ID) {
			if seg, ok := n.GetSegment(from, p.ID); ok {
				if v, ok := m.flowVar[seg.ID]; ok {
					objCoeffs[v] += demandPriority
				}
			}
		}
	}
	for v, c := range objCoeffs {
		m.backend.ObjectiveSetCoefficient(v, c)
	}
	m.backend.ObjectiveMaximize()

	status := m.backend.Solve(ctx)
	rStatus := statusFromSolver(status)

	r := &result.OptimizationResult{
		Status:    rStatus,
		Algorithm: t.Name(),
		Solver:    m.backendName,
		ElapsedMs: elapsedMillis(start),
	}
	if rStatus != result.StatusOptimal && rStatus != result.StatusFeasible {
		r.SegmentFlows = make(map[string]result.SegmentFlow)
		r.NodePressures = make(map[string]result.NodePressure)
		r.Messages = []string{"throughput solver returned " + status.String()}
		return r
	}

	r.ObjectiveValue = m.backend.ObjectiveValue()
	pressureSq, boost, fuel := applySolution(n, m)
	clampMinimumFlow(n, s.MinimumFlowThreshold)

	flows, pressures, metrics := result.BuildFromNetwork(n, pressureSq, boost, fuel)
	r.SegmentFlows = flows
	r.NodePressures = pressures
	r.Metrics = metrics

	fuelCost, boostCost := compressorCosts(n, m, s, boost, fuel)
	tc := transportationCost(n)
	r.Costs = result.CostBreakdown{
		Transportation: tc,
		Fuel:           fuelCost,
		Compressor:     boostCost,
		Total:          tc + fuelCost + boostCost,
	}

	if s.EnablePressureConstraints {
		if errs := pressure.Validate(n, pressureSq, s.FeasibilityTolerance); len(errs) > 0 {
			r.ValidationErrors = errs
		}
	}
	return r
}

// viaGraph implements the §4.4.1 graph formulation: receipts sorted
// descending by supply, deliveries descending by demand; for each
// (receipt, delivery) pair, repeatedly augment along any path the residual
// graph's BFS search finds (a path search stands in for the teacher's
// iterative-DFS pattern here — either finds *a* positive-residual path,
// which is all the greedy augmentation needs) until no augmenting path
// remains or both sides fall below the 0.01 MMscfd threshold.
func (t *Throughput) viaGraph(n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	n.ResetFlow()
	g := graph.BuildFromNetwork(n)

	const threshold = 0.01

	receipts := n.ActivePointsByType(domain.PointTypeReceipt)
	deliveries := n.ActivePointsByType(domain.PointTypeDelivery)
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].SupplyCapacity > receipts[j].SupplyCapacity })
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].DemandRequirement > deliveries[j].DemandRequirement })

	remainingSupply := make(map[string]float64, len(receipts))
	for _, r := range receipts {
		remainingSupply[r.ID] = r.SupplyCapacity
	}
	remainingDemand := make(map[string]float64, len(deliveries))
	for _, d := range deliveries {
		remainingDemand[d.ID] = d.DemandRequirement
	}

	var totalThroughput float64
	for _, r := range receipts {
		for _, d := range deliveries {
			for remainingSupply[r.ID] > threshold && remainingDemand[d.ID] > threshold {
				bfs := graph.BFS(g, r.ID, d.ID)
				if !bfs.Found {
					break
				}
				path := graph.ReconstructPath(bfs.Parent, r.ID, d.ID)
				if path == nil {
					break
				}
				push := graph.BottleneckCapacity(g, path)
				if push > remainingSupply[r.ID] {
					push = remainingSupply[r.ID]
				}
				if push > remainingDemand[d.ID] {
					push = remainingDemand[d.ID]
				}
				if push <= threshold {
					break
				}
				graph.Augment(g, path, push)
				remainingSupply[r.ID] -= push
				remainingDemand[d.ID] -= push
				totalThroughput += push
			}
		}
	}

	readFlowsFromGraph(n, g)
	clampMinimumFlow(n, s.MinimumFlowThreshold)

	flows, pressures, metrics := result.BuildFromNetwork(n, nil, nil, nil)
	tc := transportationCost(n)

	return &result.OptimizationResult{
		Status:         result.StatusFeasible,
		Algorithm:      t.Name(),
		Solver:         "graph",
		ObjectiveValue: totalThroughput,
		ElapsedMs:      elapsedMillis(start),
		SegmentFlows:   flows,
		NodePressures:  pressures,
		Metrics:        metrics,
		Costs:          result.CostBreakdown{Transportation: tc, Total: tc},
	}
}

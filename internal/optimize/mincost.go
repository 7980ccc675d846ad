package optimize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gaspipeline/internal/compressor"
	"gaspipeline/internal/domain"
	"gaspipeline/internal/graph"
	"gaspipeline/internal/pressure"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
)

// MinCost implements spec §4.4.2: minimize transportation, fuel, and
// compressor cost while satisfying every delivery's demand exactly.
type MinCost struct{}

// NewMinCost returns a ready-to-use MinCost algorithm.
func NewMinCost() *MinCost { return &MinCost{} }

func (c *MinCost) Name() string { return "mincost" }

func (c *MinCost) Description() string {
	return "Minimizes transportation, fuel, and compressor cost while satisfying every delivery's demand exactly."
}

func (c *MinCost) Parameters() map[string]string {
	return map[string]string{
		"fuel_cost_per_mmscf":     "Fuel cost coefficient (default 2.50 $/MMscf)",
		"compressor_cost_per_psi": "Compressor boost cost coefficient (default 0.001 $/psi)",
	}
}

// CanHandle requires active segments, active deliveries, and non-negative
// transportation costs, per spec §4.4.4.
func (c *MinCost) CanHandle(n *domain.Network, s *settings.Settings) bool {
	if len(n.ActiveSegments()) == 0 || len(n.ActivePointsByType(domain.PointTypeDelivery)) == 0 {
		return false
	}
	for _, seg := range n.ActiveSegments() {
		if seg.TransportationCost < 0 {
			return false
		}
	}
	return true
}

func (c *MinCost) Optimize(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	if !c.CanHandle(n, s) {
		return result.NewNotSolved(result.StatusError, c.Name(), "mincost: network lacks active segments/deliveries or has a negative transportation cost")
	}
	if s.PreferredSolver == "graph" {
		return c.viaGraph(n, s)
	}
	return c.viaSolver(ctx, n, s)
}

// viaSolver builds the §4.4.2 solver formulation: minimize
// Σ TransportationCost_e·f_e + Σ fuel_cost·fuel(c) + Σ compressor_cost·boost(c),
// subject to the shared constraints with delivery inflow pinned to demand.
func (c *MinCost) viaSolver(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	m := buildFlowModel(n, s, demandEqual)

	fuelCoeff := s.AlgorithmParameterOr("fuel_cost_per_mmscf", compressor.DefaultFuelCostPerUnit)
	boostCoeff := s.AlgorithmParameterOr("compressor_cost_per_psi", compressor.DefaultBoostCostPerUnit)

	for id, v := range m.flowVar {
		if seg, ok := n.GetSegmentByID(id); ok {
			m.backend.ObjectiveSetCoefficient(v, seg.TransportationCost)
		}
	}
	for _, v := range m.fuelVar {
		m.backend.ObjectiveSetCoefficient(v, fuelCoeff)
	}
	for _, v := range m.boostVar {
		m.backend.ObjectiveSetCoefficient(v, boostCoeff)
	}
	m.backend.ObjectiveMinimize()

	status := m.backend.Solve(ctx)
	rStatus := statusFromSolver(status)

	r := &result.OptimizationResult{
		Status:    rStatus,
		Algorithm: c.Name(),
		Solver:    m.backendName,
		ElapsedMs: elapsedMillis(start),
	}
	if rStatus != result.StatusOptimal && rStatus != result.StatusFeasible {
		r.SegmentFlows = make(map[string]result.SegmentFlow)
		r.NodePressures = make(map[string]result.NodePressure)
		r.Messages = []string{"mincost solver returned " + status.String()}
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

// viaGraph implements the §4.4.2 graph formulation: for each delivery
// (sorted descending by demand), repeatedly run Dijkstra from every active
// receipt with residual supply, take the globally cheapest path to the
// delivery, and push flow along it until demand is met or no path remains
// (reported as Infeasible, per spec's "If no path exists while D > 0.01,
// the instance is infeasible").
func (c *MinCost) viaGraph(n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	n.ResetFlow()
	g := graph.BuildFromNetwork(n)

	const threshold = 0.01

	deliveries := n.ActivePointsByType(domain.PointTypeDelivery)
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].DemandRequirement > deliveries[j].DemandRequirement })

	receipts := n.ActivePointsByType(domain.PointTypeReceipt)
	remainingSupply := make(map[string]float64, len(receipts))
	for _, r := range receipts {
		remainingSupply[r.ID] = r.SupplyCapacity
	}

	var totalCost float64
	var infeasible bool
	var messages []string

	for _, d := range deliveries {
		remainingDemand := d.DemandRequirement
		for remainingDemand > threshold {
			var bestReceipt string
			bestCost := graph.Infinity
			var bestParent map[string]string

			for _, r := range receipts {
				if remainingSupply[r.ID] <= threshold {
					continue
				}
				dist, parent := graph.Dijkstra(g, r.ID)
				if dc, ok := dist[d.ID]; ok && dc < bestCost {
					bestCost = dc
					bestReceipt = r.ID
					bestParent = parent
				}
			}

			if bestReceipt == "" || bestCost >= graph.Infinity {
				infeasible = true
				messages = append(messages, fmt.Sprintf("mincost: no remaining path to delivery %s with residual demand %.4f", d.ID, remainingDemand))
				break
			}

			path := graph.ReconstructPath(bestParent, bestReceipt, d.ID)
			if path == nil {
				infeasible = true
				break
			}
			push := graph.BottleneckCapacity(g, path)
			if push > remainingSupply[bestReceipt] {
				push = remainingSupply[bestReceipt]
			}
			if push > remainingDemand {
				push = remainingDemand
			}
			if push <= threshold {
				infeasible = true
				break
			}
			graph.Augment(g, path, push)
			remainingSupply[bestReceipt] -= push
			remainingDemand -= push
			totalCost += push * bestCost
		}
		if remainingDemand > threshold {
			infeasible = true
		}
	}

	readFlowsFromGraph(n, g)
	clampMinimumFlow(n, s.MinimumFlowThreshold)

	status := result.StatusFeasible
	if infeasible {
		status = result.StatusInfeasible
	}

	flows, pressures, metrics := result.BuildFromNetwork(n, nil, nil, nil)
	tc := transportationCost(n)

	return &result.OptimizationResult{
		Status:         status,
		Algorithm:      c.Name(),
		Solver:         "graph",
		ObjectiveValue: totalCost,
		ElapsedMs:      elapsedMillis(start),
		SegmentFlows:   flows,
		NodePressures:  pressures,
		Metrics:        metrics,
		Costs:          result.CostBreakdown{Transportation: tc, Total: tc},
		Messages:       messages,
	}
}

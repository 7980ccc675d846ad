package optimize

import (
	"context"
	"fmt"
	"time"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/graph"
	"gaspipeline/internal/pressure"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
	"gaspipeline/internal/solver"
)

// Balance implements spec §4.4.3: spread utilization evenly across active
// segments while still satisfying every delivery's demand exactly.
type Balance struct{}

// NewBalance returns a ready-to-use Balance algorithm.
func NewBalance() *Balance { return &Balance{} }

func (b *Balance) Name() string { return "balance" }

func (b *Balance) Description() string {
	return "Satisfies demand exactly while minimizing the spread of segment utilization around its network average."
}

func (b *Balance) Parameters() map[string]string {
	return map[string]string{
		"balance_weight":          "Objective weight on utilization deviation (default 1.0)",
		"throughput_weight":       "Objective weight on delivery inflow, mostly inert under demand equality (default 0.0)",
		"cost_weight":             "Objective weight on transportation cost as a tie-breaker (default 0.01)",
		"max_paths_per_delivery":  "Graph strategy: cap on enumerated simple paths per delivery (default 64)",
		"max_enumeration_depth":   "Graph strategy: cap on path length; 0 means network node count (default 0)",
	}
}

// CanHandle requires at least one active receipt and one active delivery,
// per spec §4.4.4.
func (b *Balance) CanHandle(n *domain.Network, s *settings.Settings) bool {
	return len(n.ActivePointsByType(domain.PointTypeReceipt)) > 0 && len(n.ActivePointsByType(domain.PointTypeDelivery)) > 0
}

func (b *Balance) Optimize(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	if !b.CanHandle(n, s) {
		return result.NewNotSolved(result.StatusError, b.Name(), "balance: network needs at least one active receipt and one active delivery")
	}
	if s.PreferredSolver == "graph" {
		return b.viaGraph(n, s)
	}
	return b.viaSolver(ctx, n, s)
}

// viaSolver builds the §4.4.3 solver formulation: per-segment utilization
// u_e = 100·f_e/Capacity_e, network average ū, absolute deviation d_e
// bounded below by u_e-ū and ū-u_e, demand pinned to equality as in
// mincost, objective maximizing -balance_weight·Σd_e plus the (mostly
// inert, under demand equality) throughput and cost terms spec §4.4.3
// names. The optional path-diversity indicator term is not implemented —
// it would require enumerating receipt-delivery paths inside the LP itself,
// a combinatorial cost disproportionate to a term spec labels optional;
// recorded in DESIGN.md.
func (b *Balance) viaSolver(ctx context.Context, n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	m := buildFlowModel(n, s, demandEqual)

	balanceWeight := s.AlgorithmParameterOr("balance_weight", 1.0)
	throughputWeight := s.AlgorithmParameterOr("throughput_weight", 0.0)
	costWeight := s.AlgorithmParameterOr("cost_weight", 0.01)

	segments := n.ActiveSegments()
	uVar := make(map[string]solver.VarID, len(segments))
	for _, seg := range segments {
		if seg.Capacity <= domain.Epsilon {
			continue
		}
		u := m.backend.MakeNumVar(-bigRow, bigRow, "u_"+seg.ID)
		uVar[seg.ID] = u
		c := m.backend.MakeConstraint(0, 0, "udef_"+seg.ID)
		m.backend.SetCoefficient(c, u, 1)
		m.backend.SetCoefficient(c, m.flowVar[seg.ID], -100.0/seg.Capacity)
	}

	ubar := m.backend.MakeNumVar(-bigRow, bigRow, "ubar")
	if len(uVar) > 0 {
		c := m.backend.MakeConstraint(0, 0, "ubar_def")
		m.backend.SetCoefficient(c, ubar, 1)
		inv := 1.0 / float64(len(uVar))
		for _, u := range uVar {
			m.backend.SetCoefficient(c, u, -inv)
		}
	}

	dVar := make(map[string]solver.VarID, len(uVar))
	for id, u := range uVar {
		d := m.backend.MakeNumVar(0, bigRow, "dev_"+id)
		dVar[id] = d

		c1 := m.backend.MakeConstraint(0, bigRow, "dev_pos_"+id)
		m.backend.SetCoefficient(c1, d, 1)
		m.backend.SetCoefficient(c1, u, -1)
		m.backend.SetCoefficient(c1, ubar, 1)

		c2 := m.backend.MakeConstraint(0, bigRow, "dev_neg_"+id)
		m.backend.SetCoefficient(c2, d, 1)
		m.backend.SetCoefficient(c2, u, 1)
		m.backend.SetCoefficient(c2, ubar, -1)
	}

	objCoeffs := make(map[solver.VarID]float64)
	for _, d := range dVar {
		objCoeffs[d] += -balanceWeight
	}
	for id, v := range m.flowVar {
		if seg, ok := n.GetSegmentByID(id); ok {
			objCoeffs[v] += -costWeight * seg.TransportationCost
		}
	}
	for _, p := range n.ActivePointsByType(domain.PointTypeDelivery) {
		for _, from := range n.Incoming(p.ID) {
			if seg, ok := n.GetSegment(from, p.ID); ok {
				if v, ok := m.flowVar[seg.ID]; ok {
					objCoeffs[v] += throughputWeight
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
		Algorithm: b.Name(),
		Solver:    m.backendName,
		ElapsedMs: elapsedMillis(start),
	}
	if rStatus != result.StatusOptimal && rStatus != result.StatusFeasible {
		r.SegmentFlows = make(map[string]result.SegmentFlow)
		r.NodePressures = make(map[string]result.NodePressure)
		r.Messages = []string{"balance solver returned " + status.String()}
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

// viaGraph implements the §4.4.3 graph formulation: enumerate simple paths
// from every receipt to each delivery (bounded by
// max_paths_per_delivery/max_enumeration_depth, resolving spec §9 Open
// Question 2), then repeatedly push an equal share of remaining demand
// across every path currently below the 0.95 utilization ceiling until
// demand is met or no eligible path remains.
func (b *Balance) viaGraph(n *domain.Network, s *settings.Settings) *result.OptimizationResult {
	start := time.Now()
	n.ResetFlow()
	g := graph.BuildFromNetwork(n)

	maxPaths := int(s.AlgorithmParameterOr("max_paths_per_delivery", 64))
	maxDepth := int(s.AlgorithmParameterOr("max_enumeration_depth", 0))
	if maxDepth <= 0 {
		maxDepth = len(n.PointsSorted())
	}

	const threshold = 0.01
	const utilizationCeiling = 0.95

	deliveries := n.ActivePointsByType(domain.PointTypeDelivery)
	receipts := n.ActivePointsByType(domain.PointTypeReceipt)

	var messages []string
	var infeasible bool

	for _, d := range deliveries {
		var allPaths [][]string
		for _, r := range receipts {
			if len(allPaths) >= maxPaths {
				break
			}
			paths := enumerateSimplePaths(g, r.ID, d.ID, maxDepth, maxPaths-len(allPaths))
			allPaths = append(allPaths, paths...)
		}
		if len(allPaths) >= maxPaths {
			messages = append(messages, fmt.Sprintf("balance: path enumeration capped at %d paths for delivery %s", maxPaths, d.ID))
		}

		remainingDemand := d.DemandRequirement
		for remainingDemand > threshold {
			var eligible [][]string
			for _, p := range allPaths {
				if pathMaxUtilization(g, p) < utilizationCeiling && graph.BottleneckCapacity(g, p) > threshold {
					eligible = append(eligible, p)
				}
			}
			if len(eligible) == 0 {
				break
			}

			share := remainingDemand / float64(len(eligible))
			pushedAny := false
			for _, p := range eligible {
				push := share
				if bc := graph.BottleneckCapacity(g, p); bc < push {
					push = bc
				}
				if push > remainingDemand {
					push = remainingDemand
				}
				if push <= threshold {
					continue
				}
				graph.Augment(g, p, push)
				remainingDemand -= push
				pushedAny = true
				if remainingDemand <= threshold {
					break
				}
			}
			if !pushedAny {
				break
			}
		}
		if remainingDemand > threshold {
			infeasible = true
			messages = append(messages, fmt.Sprintf("balance: %.4f MMscfd of delivery %s demand unmet below the utilization ceiling", remainingDemand, d.ID))
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
		Algorithm:      b.Name(),
		Solver:         "graph",
		ObjectiveValue: -metrics.UtilizationVariance,
		ElapsedMs:      elapsedMillis(start),
		SegmentFlows:   flows,
		NodePressures:  pressures,
		Metrics:        metrics,
		Costs:          result.CostBreakdown{Transportation: tc, Total: tc},
		Messages:       messages,
	}
}

// enumerateSimplePaths depth-first enumerates simple paths from source to
// sink over edges with positive residual capacity, stopping once maxPaths
// have been found or a path exceeds maxDepth nodes.
func enumerateSimplePaths(g *graph.ResidualGraph, source, sink string, maxDepth, maxPaths int) [][]string {
	if maxPaths <= 0 {
		return nil
	}
	var paths [][]string
	visited := map[string]bool{source: true}

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		if len(paths) >= maxPaths || len(path) > maxDepth {
			return
		}
		if node == sink {
			cp := make([]string, len(path))
			copy(cp, path)
			paths = append(paths, cp)
			return
		}
		for _, e := range g.NeighborsList(node) {
			if e.IsReverse || !e.HasCapacity() || visited[e.To] {
				continue
			}
			visited[e.To] = true
			dfs(e.To, append(path, e.To))
			visited[e.To] = false
			if len(paths) >= maxPaths {
				return
			}
		}
	}
	dfs(source, []string{source})
	return paths
}

// pathMaxUtilization returns the highest fractional utilization
// (used/original capacity) among the edges of path, in its current
// (possibly partially augmented) residual state.
func pathMaxUtilization(g *graph.ResidualGraph, path []string) float64 {
	max := 0.0
	for i := 0; i < len(path)-1; i++ {
		e := g.GetEdge(path[i], path[i+1])
		if e == nil || e.OriginalCapacity <= 0 {
			continue
		}
		used := e.OriginalCapacity - e.Capacity
		u := used / e.OriginalCapacity
		if u > max {
			max = u
		}
	}
	return max
}

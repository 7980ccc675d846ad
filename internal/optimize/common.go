package optimize

import (
	"fmt"
	"time"

	"gaspipeline/internal/compressor"
	"gaspipeline/internal/domain"
	"gaspipeline/internal/graph"
	"gaspipeline/internal/pressure"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"
	"gaspipeline/internal/solver"
	"gaspipeline/internal/solver/quadratic"
	"gaspipeline/internal/solver/simplex"
)

// bigRow stands in for an unbounded constraint side; the native simplex
// backend works in standard form and has no true infinity sentinel of its
// own, so a row this large is effectively unbounded at this problem's
// numeric scale.
const bigRow = 1e15

// demandMode controls how a delivery's inflow constraint is built, resolving
// spec §9's open question on demand-satisfaction convention per §4.4: capped
// under Maximize Throughput, exact equality under Minimize Cost and Balance
// Demand.
type demandMode int

const (
	demandCapped demandMode = iota
	demandEqual
)

// flowModel is the shared linear-programming scaffold every ViaSolver
// strategy builds on top of: per-segment flow variables, per-node
// conservation constraints, and the optional pressure/compressor
// extensions of spec §4.2/§4.3.
type flowModel struct {
	backend       solver.Backend
	backendName   string
	segments      []*domain.Segment
	flowVar       map[string]solver.VarID
	pressureSqVar map[string]solver.VarID
	activeVar     map[string]solver.VarID
	boostVar      map[string]solver.VarID
	fuelVar       map[string]solver.VarID
}

// chooseBackend picks the solver backend per SPEC_FULL.md §4.1: the
// quadratic backend only when pressure is enabled in its direct (non
// piecewise-linear) form and no compressor boolean variables are needed,
// since quadratic.Backend.CanHandle rejects boolean variables outright.
func chooseBackend(n *domain.Network, s *settings.Settings) (solver.Backend, string) {
	needsBool := s.EnableCompressorStations && len(n.ActivePointsByType(domain.PointTypeCompressor)) > 0
	wantQuadratic := s.EnablePressureConstraints && !s.UseLinearPressureApproximation

	if wantQuadratic && !needsBool {
		qb := quadratic.New()
		qb.SetTimeLimit(int(s.MaxSolutionTimeSeconds) * 1000)
		return qb, "quadratic"
	}

	sb := simplex.New()
	sb.SetTimeLimit(int(s.MaxSolutionTimeSeconds) * 1000)
	return sb, "simplex"
}

// buildFlowModel constructs the common scaffold: flow variables bounded
// [MinFlow, Capacity] per active segment, conservation constraints per
// active node, and the pressure/compressor extensions when enabled in
// settings. Variable and constraint construction always walks
// n.ActiveSegments()/n.PointsSorted(), both id-sorted, satisfying spec §5's
// determinism guarantee.
func buildFlowModel(n *domain.Network, s *settings.Settings, mode demandMode) *flowModel {
	backend, name := chooseBackend(n, s)
	m := &flowModel{
		backend:       backend,
		backendName:   name,
		segments:      n.ActiveSegments(),
		flowVar:       make(map[string]solver.VarID),
		pressureSqVar: make(map[string]solver.VarID),
		activeVar:     make(map[string]solver.VarID),
		boostVar:      make(map[string]solver.VarID),
		fuelVar:       make(map[string]solver.VarID),
	}

	for _, seg := range m.segments {
		m.flowVar[seg.ID] = backend.MakeNumVar(seg.MinFlow, seg.Capacity, "f_"+seg.ID)
	}

	addConservationConstraints(backend, n, m.flowVar, mode)

	if s.EnablePressureConstraints {
		addPressureConstraints(backend, n, m, s)
	}
	if s.EnableCompressorStations {
		addCompressorConstraints(backend, n, m, s)
	}

	return m
}

// addConservationConstraints builds one two-sided row per active node:
// receipts bound net outflow by SupplyCapacity, deliveries bound or pin net
// inflow to DemandRequirement per mode, and every other active node (a
// compressor, or an unspecified pass-through point) is a pure balance node.
func addConservationConstraints(backend solver.Backend, n *domain.Network, flowVar map[string]solver.VarID, mode demandMode) {
	for _, p := range n.PointsSorted() {
		if !p.IsActive {
			continue
		}
		incoming := n.Incoming(p.ID)
		outgoing := n.Outgoing(p.ID)
		if len(incoming) == 0 && len(outgoing) == 0 {
			continue
		}

		var lo, hi float64
		switch p.Type {
		case domain.PointTypeReceipt:
			lo, hi = -p.SupplyCapacity, 0
		case domain.PointTypeDelivery:
			if mode == demandEqual {
				lo, hi = p.DemandRequirement, p.DemandRequirement
			} else {
				lo, hi = 0, p.DemandRequirement
			}
		default:
			lo, hi = 0, 0
		}

		c := backend.MakeConstraint(lo, hi, "balance_"+p.ID)
		for _, from := range incoming {
			if seg, ok := n.GetSegment(from, p.ID); ok {
				if v, ok := flowVar[seg.ID]; ok {
					backend.SetCoefficient(c, v, 1)
				}
			}
		}
		for _, to := range outgoing {
			if seg, ok := n.GetSegment(p.ID, to); ok {
				if v, ok := flowVar[seg.ID]; ok {
					backend.SetCoefficient(c, v, -1)
				}
			}
		}
	}
}

// addPressureConstraints introduces a pressure-squared variable per active
// node and, per segment, either the direct quadratic drop constraint (when
// the backend accepts it) or the piecewise-linear secant family of spec
// §4.2, falling back automatically whenever the quadratic backend declines.
func addPressureConstraints(backend solver.Backend, n *domain.Network, m *flowModel, s *settings.Settings) {
	for _, w := range pressure.NodeWindows(n) {
		m.pressureSqVar[w.PointID] = backend.MakeNumVar(w.MinSq, w.MaxSq, "psq_"+w.PointID)
	}

	qb, isQuadraticCapable := backend.(solver.QuadraticCapable)
	preferQuadratic := isQuadraticCapable && !s.UseLinearPressureApproximation

	for _, seg := range m.segments {
		pu, okU := m.pressureSqVar[seg.FromPointID]
		pv, okV := m.pressureSqVar[seg.ToPointID]
		fv, okF := m.flowVar[seg.ID]
		if !okU || !okV || !okF {
			continue
		}

		if preferQuadratic && qb.AddQuadraticPressureDrop(pu, pv, fv, seg.PressureDropConstant) {
			continue
		}

		secants := pressure.SegmentSecants(seg, s.LinearApproximationSegments)
		for i, sec := range secants {
			c := backend.MakeConstraint(sec.Intercept, bigRow, fmt.Sprintf("pdrop_%s_%d", seg.ID, i))
			backend.SetCoefficient(c, pu, 1)
			backend.SetCoefficient(c, pv, -1)
			backend.SetCoefficient(c, fv, -sec.Slope)
		}
	}
}

// addCompressorConstraints adds activation/boost/fuel variables and their
// coupling and fuel-relation constraints per active compressor, per spec
// §4.3, with coefficients read from Settings.AlgorithmParameters where
// present (resolving spec §9 Open Question 3).
func addCompressorConstraints(backend solver.Backend, n *domain.Network, m *flowModel, s *settings.Settings) {
	coeffs := compressor.DefaultCoefficients()
	coeffs.FuelCostPerUnit = s.AlgorithmParameterOr("fuel_cost_per_mmscf", coeffs.FuelCostPerUnit)
	coeffs.BoostCostPerUnit = s.AlgorithmParameterOr("compressor_cost_per_psi", coeffs.BoostCostPerUnit)
	coeffs.MinThroughputWhenActive = s.AlgorithmParameterOr("min_throughput_when_active", coeffs.MinThroughputWhenActive)

	for _, p := range n.ActivePointsByType(domain.PointTypeCompressor) {
		active := backend.MakeBoolVar("active_" + p.ID)
		boost := backend.MakeNumVar(0, p.MaxPressureBoost, "boost_"+p.ID)
		fuel := backend.MakeNumVar(0, bigRow, "fuel_"+p.ID)
		m.activeVar[p.ID] = active
		m.boostVar[p.ID] = boost
		m.fuelVar[p.ID] = fuel

		var inbound []solver.VarID
		for _, from := range n.Incoming(p.ID) {
			if seg, ok := n.GetSegment(from, p.ID); ok {
				if v, ok := m.flowVar[seg.ID]; ok {
					inbound = append(inbound, v)
				}
			}
		}

		// boost(c) <= MaxBoost(c)*active(c)
		bc := backend.MakeConstraint(-bigRow, 0, "boost_coupling_"+p.ID)
		backend.SetCoefficient(bc, boost, 1)
		backend.SetCoefficient(bc, active, -p.MaxPressureBoost)

		// fuel(c) >= base_rate*active + FuelRate*sum_incoming_f + boost_fuel_rate*boost(c)
		fc := backend.MakeConstraint(0, bigRow, "fuel_relation_"+p.ID)
		backend.SetCoefficient(fc, fuel, 1)
		backend.SetCoefficient(fc, active, -coeffs.BaseFuelRate)
		backend.SetCoefficient(fc, boost, -coeffs.BoostFuelRate)
		for _, v := range inbound {
			backend.SetCoefficient(fc, v, -p.FuelConsumptionRate)
		}

		// sum_incoming_f >= MinThroughputWhenActive*active(c)
		mt := backend.MakeConstraint(0, bigRow, "min_throughput_"+p.ID)
		backend.SetCoefficient(mt, active, -coeffs.MinThroughputWhenActive)
		for _, v := range inbound {
			backend.SetCoefficient(mt, v, 1)
		}
	}
}

// statusFromSolver maps solver.Status onto result.Status at the package
// boundary the way internal/result documents.
func statusFromSolver(st solver.Status) result.Status {
	switch st {
	case solver.StatusOptimal:
		return result.StatusOptimal
	case solver.StatusFeasible:
		return result.StatusFeasible
	case solver.StatusInfeasible:
		return result.StatusInfeasible
	case solver.StatusUnbounded:
		return result.StatusUnbounded
	case solver.StatusTimeout:
		return result.StatusTimeout
	case solver.StatusError:
		return result.StatusError
	default:
		return result.StatusNotSolved
	}
}

// applySolution writes the model's solved flow, pressure, and compressor
// variables back onto the network and returns the pressure-squared,
// compressor-boost, and compressor-fuel maps result.BuildFromNetwork needs.
func applySolution(n *domain.Network, m *flowModel) (pressureSq, boost, fuel map[string]float64) {
	for id, v := range m.flowVar {
		if seg, ok := n.GetSegmentByID(id); ok {
			seg.CurrentFlow = m.backend.Value(v)
		}
	}

	pressureSq = make(map[string]float64, len(m.pressureSqVar))
	for id, v := range m.pressureSqVar {
		pressureSq[id] = m.backend.Value(v)
	}

	boost = make(map[string]float64, len(m.boostVar))
	for id, v := range m.boostVar {
		boost[id] = m.backend.Value(v)
	}

	fuel = make(map[string]float64, len(m.fuelVar))
	for id, v := range m.fuelVar {
		fuel[id] = m.backend.Value(v)
	}

	return pressureSq, boost, fuel
}

// compressorCosts sums FuelCost/BoostCost over every compressor variable the
// model introduced, using the same AlgorithmParameters-resolved coefficients
// addCompressorConstraints used.
func compressorCosts(n *domain.Network, m *flowModel, s *settings.Settings, boost, fuel map[string]float64) (fuelCost, boostCost float64) {
	coeffs := compressor.DefaultCoefficients()
	coeffs.FuelCostPerUnit = s.AlgorithmParameterOr("fuel_cost_per_mmscf", coeffs.FuelCostPerUnit)
	coeffs.BoostCostPerUnit = s.AlgorithmParameterOr("compressor_cost_per_psi", coeffs.BoostCostPerUnit)

	for id := range m.activeVar {
		st := compressor.State{PointID: id, Boost: boost[id], Fuel: fuel[id]}
		fuelCost += compressor.FuelCost(coeffs, st)
		boostCost += compressor.BoostCost(coeffs, st)
	}
	return fuelCost, boostCost
}

// transportationCost sums TransportationCost*flow across active segments.
func transportationCost(n *domain.Network) float64 {
	var total float64
	for _, seg := range n.ActiveSegments() {
		total += seg.TransportationCost * seg.CurrentFlow
	}
	return total
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// readFlowsFromGraph writes a solved residual graph's edge flows back onto
// the network's segments. A bidirectional segment's true signed flow is
// forward.Flow minus backward.Flow, per graph.BuildFromNetwork's documented
// reverse-capacity-folding convention.
func readFlowsFromGraph(n *domain.Network, g *graph.ResidualGraph) {
	for _, seg := range n.ActiveSegments() {
		var flow float64
		if fwd := g.GetEdge(seg.FromPointID, seg.ToPointID); fwd != nil {
			flow += fwd.Flow
		}
		if seg.IsBidirectional {
			if back := g.GetEdge(seg.ToPointID, seg.FromPointID); back != nil {
				flow -= back.Flow
			}
		}
		seg.CurrentFlow = flow
	}
}

// clampMinimumFlow zeroes segment flows below Settings.MinimumFlowThreshold,
// per spec §6 ("Flows below are treated as 0 in reports").
func clampMinimumFlow(n *domain.Network, threshold float64) {
	if threshold <= 0 {
		return
	}
	for _, seg := range n.ActiveSegments() {
		if seg.CurrentFlow < threshold && seg.CurrentFlow > -threshold {
			seg.CurrentFlow = 0
		}
	}
}

// Package tracer implements the upstream flow tracer: a pre-flight
// feasibility check that walks backward from each delivery's demand,
// independent of any optimizer run, splitting required flow proportionally
// by incoming segment capacity at multi-parent nodes. Adapted from
// pkg/domain/bfs.go's traversal idiom (level-by-level backward walk,
// visited set scoped to one traversal) to a backward DFS with
// capacity-proportional splitting instead of plain reachability.
package tracer

import (
	"sort"

	"gaspipeline/internal/domain"
)

// Result is the outcome of tracing one delivery's demand backward.
type Result struct {
	DeliveryID string
	// RequiredFlow is the flow each segment on the delivery's upstream
	// paths would need to carry to satisfy DeliveryID's demand alone.
	RequiredFlow map[domain.SegmentKey]float64
	// Feasible is false when some segment's required flow exceeds its
	// capacity.
	Feasible bool
}

// TraceDelivery walks backward from deliveryID's DemandRequirement,
// attributing required flow to every segment on its upstream paths. At a
// point fed by multiple segments, the demand arriving at that point is
// split among the incoming segments in proportion to each segment's share
// of the point's total incoming capacity — not by any flow already present
// on the network, so the trace works equally well on a freshly loaded,
// unsolved network. A visited set scoped to the current recursion path
// guards against cycles.
func TraceDelivery(n *domain.Network, deliveryID string) *Result {
	res := &Result{DeliveryID: deliveryID, RequiredFlow: make(map[domain.SegmentKey]float64)}

	delivery, ok := n.GetPoint(deliveryID)
	if !ok || delivery.DemandRequirement <= domain.Epsilon {
		res.Feasible = true
		return res
	}

	visiting := make(map[string]bool)
	propagateDemand(n, deliveryID, delivery.DemandRequirement, visiting, res.RequiredFlow)
	res.Feasible = withinCapacity(n, res.RequiredFlow)
	return res
}

// propagateDemand pushes demand units arriving at pointID back across its
// incoming segments, splitting proportionally by segment capacity.
func propagateDemand(n *domain.Network, pointID string, demand float64, visiting map[string]bool, required map[domain.SegmentKey]float64) {
	if demand <= domain.Epsilon || visiting[pointID] {
		return
	}
	visiting[pointID] = true
	defer delete(visiting, pointID)

	type inEdge struct {
		from string
		seg  *domain.Segment
	}
	var inbound []inEdge
	var totalCapacity float64
	for _, from := range n.Incoming(pointID) {
		s, ok := n.GetSegment(from, pointID)
		if !ok || !s.IsActive || s.Capacity <= domain.Epsilon {
			continue
		}
		inbound = append(inbound, inEdge{from: from, seg: s})
		totalCapacity += s.Capacity
	}
	if len(inbound) == 0 {
		return
	}
	sort.Slice(inbound, func(i, j int) bool { return inbound[i].from < inbound[j].from })

	for _, ie := range inbound {
		share := demand * (ie.seg.Capacity / totalCapacity)
		required[ie.seg.Key()] += share
		propagateDemand(n, ie.from, share, visiting, required)
	}
}

// withinCapacity reports whether every segment named in required carries no
// more than its own capacity, within domain.Epsilon.
func withinCapacity(n *domain.Network, required map[domain.SegmentKey]float64) bool {
	for key, flow := range required {
		s, ok := n.GetSegment(key.From, key.To)
		if !ok || flow > s.Capacity+domain.Epsilon {
			return false
		}
	}
	return true
}

// NetworkResult aggregates the per-delivery traces of every active delivery
// into one required-flow map and a single network-wide feasibility verdict.
type NetworkResult struct {
	Deliveries        []*Result
	RequiredFlow      map[domain.SegmentKey]float64
	IsNetworkFeasible bool
}

// TraceAllDeliveries runs TraceDelivery over every active delivery with
// positive demand, in id-sorted order for deterministic output, and sums
// each segment's required flow across deliveries that share it.
func TraceAllDeliveries(n *domain.Network) *NetworkResult {
	out := &NetworkResult{RequiredFlow: make(map[domain.SegmentKey]float64)}
	for _, p := range n.ActivePointsByType(domain.PointTypeDelivery) {
		r := TraceDelivery(n, p.ID)
		out.Deliveries = append(out.Deliveries, r)
		for key, flow := range r.RequiredFlow {
			out.RequiredFlow[key] += flow
		}
	}
	out.IsNetworkFeasible = withinCapacity(n, out.RequiredFlow)
	return out
}

// Package pressure builds the pressure-squared constraint system described
// for every active node and segment, in both its piecewise-linear and
// quadratic forms, and performs the post-solve validation pass and the
// independent flow-weighted pressure estimate used by diagnostics.
package pressure

import (
	"fmt"
	"sort"

	"gaspipeline/internal/apperr"
	"gaspipeline/internal/domain"
	"gaspipeline/internal/pipemath"
)

// NodeWindow is the pressure-squared bound [Pmin², Pmax²] for one node,
// the variable domain every pressure backend introduces per spec §4.2.
type NodeWindow struct {
	PointID  string
	MinSq    float64
	MaxSq    float64
}

// NodeWindows returns the pressure-squared window for every active point,
// id-sorted for deterministic variable construction order.
func NodeWindows(n *domain.Network) []NodeWindow {
	var out []NodeWindow
	for _, p := range n.PointsSorted() {
		if !p.IsActive {
			continue
		}
		out = append(out, NodeWindow{PointID: p.ID, MinSq: p.MinPressure * p.MinPressure, MaxSq: p.MaxPressure * p.MaxPressure})
	}
	return out
}

// SegmentSecants discretizes one segment's [0, Capacity] pressure-drop curve
// into Settings.LinearApproximationSegments intervals, per spec §4.2.
func SegmentSecants(s *domain.Segment, intervals int) []pipemath.Secant {
	return pipemath.PiecewiseLinearSecants(s.PressureDropConstant, s.Capacity, intervals)
}

// QuadraticDropLowerBound returns k*f*|f|, the exact (non-linearized)
// pressure-squared drop across a segment at flow f.
func QuadraticDropLowerBound(s *domain.Segment, flow float64) float64 {
	return pipemath.PressureDrop(s.PressureDropConstant, flow)
}

// Violation describes one post-solve pressure check failure.
type Violation struct {
	PointID   string
	SegmentID string
	Message   string
}

// Validate checks every active node's pressure against its window and every
// active segment's pressure-squared drop against its quadratic lower bound,
// both within epsilon, accumulating every violation rather than stopping at
// the first (per spec §7's aggregate-list error convention).
func Validate(n *domain.Network, pressureSq map[string]float64, epsilon float64) []*apperr.Error {
	var errs []*apperr.Error

	for _, p := range n.PointsSorted() {
		if !p.IsActive {
			continue
		}
		psq, ok := pressureSq[p.ID]
		if !ok {
			continue
		}
		pr := pipemath.SqrtClampedAtZero(psq)
		if pr < p.MinPressure-epsilon || pr > p.MaxPressure+epsilon {
			errs = append(errs, apperr.NewWithField(apperr.CodePressureViolation,
				fmt.Sprintf("point %s pressure %.4f outside window [%.4f, %.4f]", p.ID, pr, p.MinPressure, p.MaxPressure),
				fmt.Sprintf("points[%s]", p.ID)).WithDetail("pressure", pr))
		}
	}

	for _, s := range n.ActiveSegments() {
		pu, okU := pressureSq[s.FromPointID]
		pv, okV := pressureSq[s.ToPointID]
		if !okU || !okV {
			continue
		}
		drop := QuadraticDropLowerBound(s, s.CurrentFlow)
		if pu-pv < drop-epsilon {
			errs = append(errs, apperr.NewWithField(apperr.CodePressureViolation,
				fmt.Sprintf("segment %s pressure-squared drop %.4f below required %.4f", s.ID, pu-pv, drop),
				fmt.Sprintf("segments[%s]", s.ID)))
		}
	}

	return errs
}

// EstimateDeliveryPressure computes the flow-weighted mean estimated
// pressure at point v, recursing upstream through incoming segments via
// √max(0, P²(u) − k·f²), per spec §4.2's independent computation. sourceP
// supplies known pressures at receipt points (the recursion's base case);
// memo caches results across repeated calls within one estimate pass.
func EstimateDeliveryPressure(n *domain.Network, pointID string, sourceP map[string]float64, memo map[string]float64) float64 {
	if v, ok := memo[pointID]; ok {
		return v
	}
	if p, ok := sourceP[pointID]; ok {
		memo[pointID] = p
		return p
	}

	point, ok := n.GetPoint(pointID)
	if !ok {
		return 0
	}
	if point.Type == domain.PointTypeReceipt {
		memo[pointID] = point.CurrentPressure
		return point.CurrentPressure
	}

	type incomingEstimate struct {
		from     string
		flow     float64
		estimate float64
	}
	var estimates []incomingEstimate
	var totalFlow float64
	for _, from := range n.Incoming(pointID) {
		s, ok := n.GetSegment(from, pointID)
		if !ok || s.CurrentFlow <= domain.Epsilon {
			continue
		}
		upstreamP := EstimateDeliveryPressure(n, from, sourceP, memo)
		upstreamPSq := upstreamP * upstreamP
		drop := pipemath.PressureDrop(s.PressureDropConstant, s.CurrentFlow)
		downstreamPSq := upstreamPSq - drop
		estimates = append(estimates, incomingEstimate{from: from, flow: s.CurrentFlow, estimate: pipemath.SqrtClampedAtZero(downstreamPSq)})
		totalFlow += s.CurrentFlow
	}
	if totalFlow <= domain.Epsilon {
		memo[pointID] = point.CurrentPressure
		return point.CurrentPressure
	}

	sort.Slice(estimates, func(i, j int) bool { return estimates[i].from < estimates[j].from })
	var weighted float64
	for _, e := range estimates {
		weighted += e.estimate * (e.flow / totalFlow)
	}
	memo[pointID] = weighted
	return weighted
}

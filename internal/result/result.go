// Package result defines the output shape an optimization run produces —
// per-segment flow records, per-node pressure records, a cost breakdown,
// aggregate metrics, and a bottleneck list — matching the wire shape spec
// §6 names, and the analysis style of the teacher's
// analytics-svc/internal/analysis package (severity-graded bottleneck
// list, utilization mean/variance).
package result

import (
	"sort"

	"gaspipeline/internal/apperr"
	"gaspipeline/internal/domain"
	"gaspipeline/internal/pipemath"

	"gonum.org/v1/gonum/stat"
)

// Status mirrors solver.Status at the result boundary so callers of
// internal/result never need to import internal/solver.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusFeasible:
		return "Feasible"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimeout:
		return "Timeout"
	case StatusError:
		return "Error"
	default:
		return "NotSolved"
	}
}

// SegmentFlow is the per-segment flow record of spec §3.
type SegmentFlow struct {
	SegmentID          string  `json:"segmentId"`
	Flow               float64 `json:"flow"`
	Capacity           float64 `json:"capacity"`
	TransportationCost float64 `json:"transportationCost"`
	UtilizationPct     float64 `json:"utilizationPct"`
}

// NodePressure is the per-node pressure record of spec §3.
type NodePressure struct {
	PointID          string  `json:"pointId"`
	Pressure         float64 `json:"pressure"`
	PressureSq       float64 `json:"pressureSq"`
	WithinConstraints bool   `json:"withinConstraints"`
	Boost            float64 `json:"boost"`
	FuelConsumption  float64 `json:"fuelConsumption"`
}

// CostBreakdown sums to Total.
type CostBreakdown struct {
	Transportation float64 `json:"transportation"`
	Fuel           float64 `json:"fuel"`
	Compressor     float64 `json:"compressor"`
	Other          float64 `json:"other"`
	Total          float64 `json:"total"`
}

// BottleneckSeverity grades a saturated segment the way the teacher's
// calculateSeverity buckets utilization, extended to a named enum here.
type BottleneckSeverity int

const (
	SeverityLow BottleneckSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s BottleneckSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// severityForUtilization buckets a [0,1] utilization fraction the way the
// teacher's analytics bottleneck finder does (0.90/0.95/0.99 thresholds).
func severityForUtilization(u float64) BottleneckSeverity {
	switch {
	case u >= 0.99:
		return SeverityCritical
	case u >= 0.95:
		return SeverityHigh
	case u >= 0.90:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Bottleneck names one saturated segment and how severe its utilization is.
type Bottleneck struct {
	SegmentID   string             `json:"segmentId"`
	Utilization float64            `json:"utilization"`
	Severity    BottleneckSeverity `json:"severity"`
}

// Metrics aggregates scalar summary statistics over a solved network.
type Metrics struct {
	TotalThroughput      float64      `json:"totalThroughput"`
	SupplyUsed           float64      `json:"supplyUsed"`
	DemandSatisfied      float64      `json:"demandSatisfied"`
	DemandRequired       float64      `json:"demandRequired"`
	AverageUtilizationPct float64     `json:"averageUtilizationPct"`
	PeakUtilizationPct    float64     `json:"peakUtilizationPct"`
	UtilizationVariance   float64     `json:"utilizationVariance"`
	ActiveSegmentCount    int         `json:"activeSegmentCount"`
	ActiveCompressorCount int         `json:"activeCompressorCount"`
	Bottlenecks           []Bottleneck `json:"bottlenecks,omitempty"`
}

// OptimizationResult is the full output of one algorithm run, matching spec
// §3's Result shape.
type OptimizationResult struct {
	RunID           string                  `json:"runId,omitempty"`
	Status          Status                  `json:"status"`
	Algorithm       string                  `json:"algorithm"`
	Solver          string                  `json:"solver"`
	ObjectiveValue  float64                 `json:"objectiveValue"`
	ElapsedMs       int64                   `json:"elapsedMs"`
	SegmentFlows    map[string]SegmentFlow  `json:"segmentFlows"`
	NodePressures   map[string]NodePressure `json:"nodePressures"`
	Costs           CostBreakdown           `json:"costs"`
	Metrics         Metrics                 `json:"metrics"`
	Messages        []string                `json:"messages,omitempty"`
	ValidationErrors []*apperr.Error        `json:"validationErrors,omitempty"`
}

// NewNotSolved returns a zero-value result carrying only the given status
// and message, used when an algorithm is inapplicable or validation fails
// before any solve is attempted.
func NewNotSolved(status Status, algorithm, message string) *OptimizationResult {
	return &OptimizationResult{
		Status:        status,
		Algorithm:     algorithm,
		SegmentFlows:  make(map[string]SegmentFlow),
		NodePressures: make(map[string]NodePressure),
		Messages:      []string{message},
	}
}

// BuildFromNetwork reads the final per-segment flows and per-node pressures
// off a solved network and computes metrics/bottlenecks, leaving Costs for
// the caller (cost terms depend on the algorithm's own coefficients).
func BuildFromNetwork(n *domain.Network, pressureSq map[string]float64, compressorBoost, compressorFuel map[string]float64) (map[string]SegmentFlow, map[string]NodePressure, Metrics) {
	segments := n.ActiveSegments()
	flows := make(map[string]SegmentFlow, len(segments))

	utilizations := make([]float64, 0, len(segments))
	var bottlenecks []Bottleneck
	var totalThroughput float64

	for _, s := range segments {
		util := s.Utilization()
		utilizations = append(utilizations, util*100)
		flows[s.ID] = SegmentFlow{
			SegmentID:          s.ID,
			Flow:               s.CurrentFlow,
			Capacity:           s.Capacity,
			TransportationCost: s.TransportationCost * s.CurrentFlow,
			UtilizationPct:     util * 100,
		}
		if from, ok := n.GetPoint(s.FromPointID); ok && from.Type == domain.PointTypeReceipt && s.CurrentFlow > 0 {
			totalThroughput += s.CurrentFlow
		}
		if util >= 0.90 {
			bottlenecks = append(bottlenecks, Bottleneck{SegmentID: s.ID, Utilization: util, Severity: severityForUtilization(util)})
		}
	}
	sort.Slice(bottlenecks, func(i, j int) bool { return bottlenecks[i].Utilization > bottlenecks[j].Utilization })

	var supplyUsed, demandSatisfied, demandRequired float64
	activeCompressors := 0
	pressures := make(map[string]NodePressure, len(n.PointsSorted()))
	for _, p := range n.PointsSorted() {
		if !p.IsActive {
			continue
		}
		psq := pressureSq[p.ID]
		pr := p.CurrentPressure
		if psq > 0 {
			pr = pipemath.SqrtClampedAtZero(psq)
		}
		within := pr >= p.MinPressure-domain.Epsilon && pr <= p.MaxPressure+domain.Epsilon
		pressures[p.ID] = NodePressure{
			PointID:           p.ID,
			Pressure:          pr,
			PressureSq:        pr * pr,
			WithinConstraints: within,
			Boost:             compressorBoost[p.ID],
			FuelConsumption:   compressorFuel[p.ID],
		}

		switch p.Type {
		case domain.PointTypeReceipt:
			supplyUsed += outflowOf(n, p.ID)
		case domain.PointTypeDelivery:
			demandSatisfied += inflowOf(n, p.ID)
			demandRequired += p.DemandRequirement
		case domain.PointTypeCompressor:
			if compressorBoost[p.ID] > domain.Epsilon {
				activeCompressors++
			}
		}
	}

	var mean, variance, peak float64
	if len(utilizations) > 0 {
		mean, variance = stat.MeanVariance(utilizations, nil)
		for _, u := range utilizations {
			if u > peak {
				peak = u
			}
		}
	}

	metrics := Metrics{
		TotalThroughput:       totalThroughput,
		SupplyUsed:            supplyUsed,
		DemandSatisfied:       demandSatisfied,
		DemandRequired:        demandRequired,
		AverageUtilizationPct: mean,
		PeakUtilizationPct:    peak,
		UtilizationVariance:   variance,
		ActiveSegmentCount:    len(segments),
		ActiveCompressorCount: activeCompressors,
		Bottlenecks:           bottlenecks,
	}

	return flows, pressures, metrics
}

func outflowOf(n *domain.Network, pointID string) float64 {
	var total float64
	for _, to := range n.Outgoing(pointID) {
		if s, ok := n.GetSegment(pointID, to); ok {
			total += s.CurrentFlow
		}
	}
	return total
}

func inflowOf(n *domain.Network, pointID string) float64 {
	var total float64
	for _, from := range n.Incoming(pointID) {
		if s, ok := n.GetSegment(from, pointID); ok {
			total += s.CurrentFlow
		}
	}
	return total
}

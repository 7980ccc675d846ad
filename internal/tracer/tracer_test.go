package tracer

import (
	"testing"

	"gaspipeline/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamondNetwork mirrors the receipt-fan-in shape used elsewhere in the
// domain package's tests, left unsolved: every segment's CurrentFlow is
// zero, since the tracer must reason from demand and capacity alone.
func diamondNetwork() *domain.Network {
	return domain.NewBuilder("diamond").
		Receipt("R1", "R1", 1000, 1, 100, 500).
		Receipt("R2", "R2", 1000, 1, 100, 500).
		Delivery("D1", "D1", 100, 100, 500).
		Segment("R1-D1", "R1-D1", "R1", "D1", 60, 10, 10, 0.01, 1).
		Segment("R2-D1", "R2-D1", "R2", "D1", 40, 10, 10, 0.01, 1).
		Build()
}

func TestTraceDeliverySplitsProportionallyByCapacity(t *testing.T) {
	n := diamondNetwork()
	result := TraceDelivery(n, "D1")

	require.True(t, result.Feasible)
	require.Len(t, result.RequiredFlow, 2)
	assert.InDelta(t, 60.0, result.RequiredFlow[domain.SegmentKey{From: "R1", To: "D1"}], 1e-9)
	assert.InDelta(t, 40.0, result.RequiredFlow[domain.SegmentKey{From: "R2", To: "D1"}], 1e-9)
}

func TestTraceDeliveryIgnoresCurrentFlow(t *testing.T) {
	n := diamondNetwork()
	// An unsolved network: every segment starts at CurrentFlow 0. The trace
	// must still produce a required-flow estimate from capacity alone.
	for _, s := range n.ActiveSegments() {
		assert.Zero(t, s.CurrentFlow)
	}

	result := TraceDelivery(n, "D1")
	assert.NotZero(t, result.RequiredFlow[domain.SegmentKey{From: "R1", To: "D1"}])
}

func TestTraceDeliveryWithNoDemandIsTriviallyFeasible(t *testing.T) {
	n := diamondNetwork()
	n.AddPoint(&domain.Point{ID: "D0", Type: domain.PointTypeDelivery, IsActive: true, MinPressure: 100, MaxPressure: 500, DemandRequirement: 0})

	result := TraceDelivery(n, "D0")
	assert.True(t, result.Feasible)
	assert.Empty(t, result.RequiredFlow)
}

func TestTraceDeliveryFlagsInfeasibleWhenRequiredFlowExceedsCapacity(t *testing.T) {
	n := domain.NewBuilder("undersized").
		Receipt("R1", "R1", 100, 1, 100, 500).
		Delivery("D1", "D1", 900, 100, 500).
		Segment("R1-D1", "R1-D1", "R1", "D1", 600, 10, 10, 0.01, 1).
		Build()

	result := TraceDelivery(n, "D1")
	assert.False(t, result.Feasible)
	assert.InDelta(t, 900.0, result.RequiredFlow[domain.SegmentKey{From: "R1", To: "D1"}], 1e-9)
}

func TestTraceDeliveryAvoidsCycles(t *testing.T) {
	n := domain.NewBuilder("loop").
		Receipt("R1", "R1", 1000, 1, 100, 500).
		Delivery("D1", "D1", 500, 100, 500).
		Build()
	n.AddPoint(&domain.Point{ID: "H", Type: domain.PointTypeCompressor, IsActive: true, MinPressure: 100, MaxPressure: 500})
	n.AddSegment(&domain.Segment{ID: "R1-H", FromPointID: "R1", ToPointID: "H", Capacity: 500, IsActive: true})
	n.AddSegment(&domain.Segment{ID: "H-D1", FromPointID: "H", ToPointID: "D1", Capacity: 500, IsActive: true})
	n.AddSegment(&domain.Segment{ID: "D1-H", FromPointID: "D1", ToPointID: "H", Capacity: 500, IsActive: true})

	require.NotPanics(t, func() {
		TraceDelivery(n, "D1")
	})
}

// e1Network is the six-scenario acceptance network: a receipt feeding a
// compressor that splits flow to two deliveries. S1's capacity is sized to
// the receipt's supply (as the E2 throughput scenario requires a
// demand-bounded 1000 units to clear it), not the 800 figure attached to S1
// elsewhere in the scenario narrative — see DESIGN.md for this reading.
func e1Network() *domain.Network {
	n := domain.NewBuilder("e1").
		Receipt("R1", "R1", 1000, 0, 800, 1000).
		Delivery("D1", "D1", 600, 300, 800).
		Delivery("D2", "D2", 400, 300, 800).
		Build()
	n.AddPoint(&domain.Point{ID: "C1", Type: domain.PointTypeCompressor, IsActive: true, MinPressure: 300, MaxPressure: 1200, MaxPressureBoost: 400, FuelConsumptionRate: 0.02})
	n.AddSegment(&domain.Segment{ID: "S1", FromPointID: "R1", ToPointID: "C1", Capacity: 1000, Length: 50, Diameter: 36, FrictionFactor: 0.015, TransportationCost: 0.10, IsActive: true})
	n.AddSegment(&domain.Segment{ID: "S2", FromPointID: "C1", ToPointID: "D1", Capacity: 600, Length: 30, Diameter: 24, FrictionFactor: 0.018, TransportationCost: 0.12, IsActive: true})
	n.AddSegment(&domain.Segment{ID: "S3", FromPointID: "C1", ToPointID: "D2", Capacity: 500, Length: 40, Diameter: 20, FrictionFactor: 0.020, TransportationCost: 0.15, IsActive: true})
	return n
}

func TestTraceAllDeliveriesReproducesE6OnUnsolvedE1Network(t *testing.T) {
	n := e1Network()
	for _, s := range n.ActiveSegments() {
		require.Zero(t, s.CurrentFlow)
	}

	result := TraceAllDeliveries(n)
	require.True(t, result.IsNetworkFeasible)
	assert.InDelta(t, 1000.0, result.RequiredFlow[domain.SegmentKey{From: "R1", To: "C1"}], 1e-9)
	assert.InDelta(t, 600.0, result.RequiredFlow[domain.SegmentKey{From: "C1", To: "D1"}], 1e-9)
	assert.InDelta(t, 400.0, result.RequiredFlow[domain.SegmentKey{From: "C1", To: "D2"}], 1e-9)
}

func TestTraceAllDeliveriesOrdersByDeliveryID(t *testing.T) {
	n := diamondNetwork()
	n.AddPoint(&domain.Point{ID: "D0", Type: domain.PointTypeDelivery, IsActive: true, MinPressure: 100, MaxPressure: 500, DemandRequirement: 1})

	result := TraceAllDeliveries(n)
	require.Len(t, result.Deliveries, 2)
	assert.Equal(t, "D0", result.Deliveries[0].DeliveryID)
	assert.Equal(t, "D1", result.Deliveries[1].DeliveryID)
}

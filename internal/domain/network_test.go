package domain

import (
	"encoding/json"
	"testing"

	"gaspipeline/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNetwork() *Network {
	b := NewBuilder("sample").
		Receipt("R1", "Receipt 1", 100, 2.5, 500, 1000).
		Delivery("D1", "Delivery 1", 80, 300, 600).
		Segment("S1", "R1-D1", "R1", "D1", 100, 50, 20, 0.01, 1.2)
	return b.Build()
}

func TestSegmentRecomputeDerived(t *testing.T) {
	s := &Segment{FrictionFactor: 0.02, Length: 100, Diameter: 10}
	s.RecomputeDerived()
	assert.Greater(t, s.PressureDropConstant, 0.0)

	zero := &Segment{FrictionFactor: 0.02, Length: 100, Diameter: 0}
	zero.RecomputeDerived()
	assert.Zero(t, zero.PressureDropConstant)
}

func TestSegmentUtilizationAndSaturation(t *testing.T) {
	s := &Segment{Capacity: 100, CurrentFlow: 95}
	assert.InDelta(t, 0.95, s.Utilization(), 1e-9)
	assert.False(t, s.IsSaturated())

	s.CurrentFlow = 100
	assert.True(t, s.IsSaturated())

	s.CurrentFlow = -100
	assert.InDelta(t, 1.0, s.Utilization(), 1e-9)
}

func TestPointPressureWindowValid(t *testing.T) {
	p := &Point{MinPressure: 100, MaxPressure: 500}
	assert.True(t, p.PressureWindowValid())

	p2 := &Point{MinPressure: 500, MaxPressure: 500}
	assert.False(t, p2.PressureWindowValid())

	p3 := &Point{MinPressure: -1, MaxPressure: 500}
	assert.False(t, p3.PressureWindowValid())
}

func TestNetworkAdjacencyAndSortedOrder(t *testing.T) {
	n := sampleNetwork()
	assert.Equal(t, []string{"D1"}, n.Outgoing("R1"))
	assert.Equal(t, []string{"R1"}, n.Incoming("D1"))

	points := n.PointsSorted()
	require.Len(t, points, 2)
	assert.Equal(t, "D1", points[0].ID)
	assert.Equal(t, "R1", points[1].ID)

	segs := n.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, "S1", segs[0].ID)
}

func TestNetworkCloneIsIndependent(t *testing.T) {
	n := sampleNetwork()
	clone := n.Clone()

	clonePoint, ok := clone.GetPoint("R1")
	require.True(t, ok)
	clonePoint.SupplyCapacity = 999

	origPoint, ok := n.GetPoint("R1")
	require.True(t, ok)
	assert.Equal(t, 100.0, origPoint.SupplyCapacity)

	cloneSeg, ok := clone.GetSegmentByID("S1")
	require.True(t, ok)
	cloneSeg.CurrentFlow = 42

	origSeg, ok := n.GetSegmentByID("S1")
	require.True(t, ok)
	assert.Equal(t, 0.0, origSeg.CurrentFlow)
}

func TestNetworkResetFlow(t *testing.T) {
	n := sampleNetwork()
	seg, _ := n.GetSegmentByID("S1")
	seg.CurrentFlow = 50
	n.ResetFlow()
	seg, _ = n.GetSegmentByID("S1")
	assert.Zero(t, seg.CurrentFlow)
}

func TestNetworkTotalsAndValidate(t *testing.T) {
	n := sampleNetwork()
	assert.Equal(t, 100.0, n.TotalSupplyCapacity())
	assert.Equal(t, 80.0, n.TotalDemandRequirement())
	assert.Empty(t, n.Validate())
}

func TestValidateCatchesMultipleViolationsAtOnce(t *testing.T) {
	n := NewNetwork("broken")
	n.AddPoint(&Point{ID: "R1", Type: PointTypeReceipt, IsActive: true, MinPressure: 0, MaxPressure: 0})
	n.AddPoint(&Point{ID: "D1", Type: PointTypeDelivery, IsActive: true, MinPressure: 100, MaxPressure: 500})
	n.AddSegment(&Segment{ID: "S1", FromPointID: "R1", ToPointID: "ghost", Capacity: -5, Length: 0, Diameter: 0, FrictionFactor: 0})

	errs := n.Validate()
	assert.GreaterOrEqual(t, len(errs), 4, "validate should aggregate every violation, not stop at the first")
}

func TestValidateSupplyBelowDemand(t *testing.T) {
	n := NewBuilder("shortage").
		Receipt("R1", "R1", 10, 1, 100, 500).
		Delivery("D1", "D1", 80, 100, 500).
		Segment("S1", "S1", "R1", "D1", 10, 10, 10, 0.01, 1).
		Build()

	errs := n.Validate()
	found := false
	for _, e := range errs {
		if e.Code == apperr.CodeSupplyBelowDemand {
			found = true
		}
	}
	assert.True(t, found, "expected a supply-below-demand violation")
}

func TestNetworkJSONRoundTrip(t *testing.T) {
	n := sampleNetwork()
	seg, _ := n.GetSegmentByID("S1")
	seg.CurrentFlow = 37

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var restored Network
	require.NoError(t, json.Unmarshal(data, &restored))

	restoredSeg, ok := restored.GetSegmentByID("S1")
	require.True(t, ok)
	assert.Equal(t, seg.CurrentFlow, restoredSeg.CurrentFlow)
	assert.Equal(t, seg.FrictionFactor, restoredSeg.FrictionFactor)
	assert.Greater(t, restoredSeg.PressureDropConstant, 0.0, "unmarshal must recompute derived fields")

	restoredPoint, ok := restored.GetPoint("R1")
	require.True(t, ok)
	assert.Equal(t, PointTypeReceipt, restoredPoint.Type)
}

func TestPointTypeJSONVocabulary(t *testing.T) {
	data, err := json.Marshal(PointTypeCompressor)
	require.NoError(t, err)
	assert.Equal(t, `"Compressor"`, string(data))

	var t2 PointType
	require.NoError(t, json.Unmarshal([]byte(`"Delivery"`), &t2))
	assert.Equal(t, PointTypeDelivery, t2)
}

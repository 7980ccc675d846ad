package graph

import (
	"testing"

	"gaspipeline/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondNetwork() *domain.Network {
	return domain.NewBuilder("diamond").
		Receipt("A", "A", 100, 1, 100, 500).
		Delivery("D", "D", 100, 100, 500).
		Segment("AB", "AB", "A", "B", 10, 10, 10, 0.01, 1).
		Segment("AC", "AC", "A", "C", 10, 10, 10, 0.01, 1).
		Segment("BD", "BD", "B", "D", 10, 10, 10, 0.01, 1).
		Segment("CD", "CD", "C", "D", 10, 10, 10, 0.01, 1).
		Build()
}

func withIntermediatePoints(n *domain.Network) *domain.Network {
	n.AddPoint(&domain.Point{ID: "B", Type: domain.PointTypeCompressor, IsActive: true, MinPressure: 100, MaxPressure: 500, MaxPressureBoost: 50, FuelConsumptionRate: 0.01})
	n.AddPoint(&domain.Point{ID: "C", Type: domain.PointTypeCompressor, IsActive: true, MinPressure: 100, MaxPressure: 500, MaxPressureBoost: 50, FuelConsumptionRate: 0.01})
	return n
}

func TestBFSFindsAugmentingPath(t *testing.T) {
	n := withIntermediatePoints(diamondNetwork())
	g := BuildFromNetwork(n)

	result := BFS(g, "A", "D")
	require.True(t, result.Found)
	path := ReconstructPath(result.Parent, "A", "D")
	require.Len(t, path, 3)
	assert.Equal(t, "A", path[0])
	assert.Equal(t, "D", path[2])
}

func TestBottleneckAndAugment(t *testing.T) {
	n := withIntermediatePoints(diamondNetwork())
	g := BuildFromNetwork(n)

	result := BFS(g, "A", "D")
	require.True(t, result.Found)
	path := ReconstructPath(result.Parent, "A", "D")

	bottleneck := BottleneckCapacity(g, path)
	assert.InDelta(t, 10.0, bottleneck, 1e-9)

	Augment(g, path, bottleneck)
	assert.InDelta(t, 10.0, g.TotalFlowFrom("A"), 1e-9)

	edge := g.GetEdge(path[0], path[1])
	require.NotNil(t, edge)
	assert.InDelta(t, 0.0, edge.Capacity, 1e-9)
}

func TestMaxFlowViaRepeatedAugmentingPaths(t *testing.T) {
	n := withIntermediatePoints(diamondNetwork())
	g := BuildFromNetwork(n)

	var total float64
	for {
		result := BFS(g, "A", "D")
		if !result.Found {
			break
		}
		path := ReconstructPath(result.Parent, "A", "D")
		f := BottleneckCapacity(g, path)
		if f <= Epsilon {
			break
		}
		Augment(g, path, f)
		total += f
	}

	assert.InDelta(t, 20.0, total, 1e-6, "two disjoint paths of capacity 10 each should saturate at 20")
}

func TestResetRestoresOriginalCapacity(t *testing.T) {
	n := withIntermediatePoints(diamondNetwork())
	g := BuildFromNetwork(n)

	result := BFS(g, "A", "D")
	path := ReconstructPath(result.Parent, "A", "D")
	Augment(g, path, BottleneckCapacity(g, path))

	g.Reset()
	edge := g.GetEdge(path[0], path[1])
	assert.InDelta(t, edge.OriginalCapacity, edge.Capacity, 1e-9)
	assert.Zero(t, edge.Flow)
}

func TestBuildFromNetworkFoldsBidirectionalReverseCapacity(t *testing.T) {
	n := domain.NewBuilder("bidir").
		Receipt("A", "A", 50, 1, 100, 500).
		Delivery("B", "B", 50, 100, 500).
		Segment("AB", "AB", "A", "B", 20, 10, 10, 0.01, 1).
		Bidirectional("AB").
		Build()

	g := BuildFromNetwork(n)
	back := g.GetEdge("B", "A")
	require.NotNil(t, back)
	assert.InDelta(t, 20.0, back.Capacity, 1e-9)
}

package rescache

import (
	"testing"

	"gaspipeline/internal/domain"

	"github.com/stretchr/testify/assert"
)

func buildHashNetwork() *domain.Network {
	b := domain.NewBuilder("h")
	b.Receipt("R1", "Receipt 1", 1000, 0, 800, 1000)
	b.Delivery("D1", "Delivery 1", 600, 300, 800)
	b.Segment("S1", "R1->D1", "R1", "D1", 700, 10, 20, 0.01, 0.1)
	return b.Build()
}

func TestNetworkHashIsDeterministicAcrossInsertionOrder(t *testing.T) {
	a := buildHashNetwork()

	b := domain.NewBuilder("h")
	b.Delivery("D1", "Delivery 1", 600, 300, 800)
	b.Receipt("R1", "Receipt 1", 1000, 0, 800, 1000)
	b.Segment("S1", "R1->D1", "R1", "D1", 700, 10, 20, 0.01, 0.1)
	c := b.Build()

	assert.Equal(t, NetworkHash(a), NetworkHash(c))
}

func TestNetworkHashChangesWithCapacity(t *testing.T) {
	a := buildHashNetwork()
	modified := buildHashNetwork()
	seg, ok := modified.GetSegmentByID("S1")
	assert.True(t, ok)
	seg.Capacity = 500

	assert.NotEqual(t, NetworkHash(a), NetworkHash(modified))
}

func TestBuildResultKeyIsStableForEquivalentParamMaps(t *testing.T) {
	k1 := BuildResultKey("abc123", "mincost", map[string]float64{"fuel_cost_per_mmscf": 2.5, "compressor_cost_per_psi": 0.001})
	k2 := BuildResultKey("abc123", "mincost", map[string]float64{"compressor_cost_per_psi": 0.001, "fuel_cost_per_mmscf": 2.5})
	assert.Equal(t, k1, k2)
}

func TestBuildResultKeyWithoutParamsIsSimple(t *testing.T) {
	k := BuildResultKey("abc123", "throughput", nil)
	assert.Equal(t, "result:throughput:abc123", k)
}

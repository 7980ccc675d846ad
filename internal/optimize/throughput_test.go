package optimize

import (
	"context"
	"testing"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleChainNetwork(receiptSupply, segmentCapacity, deliveryDemand float64) *domain.Network {
	b := domain.NewBuilder("e")
	b.Receipt("R1", "Receipt 1", receiptSupply, 0, 800, 1000)
	b.Delivery("D1", "Delivery 1", deliveryDemand, 300, 800)
	b.Segment("S1", "R1->D1", "R1", "D1", segmentCapacity, 10, 20, 0.01, 0.1)
	return b.Build()
}

func TestThroughputCanHandleRequiresSegmentAndReceipt(t *testing.T) {
	th := NewThroughput()
	s := settings.Defaults()

	empty := domain.NewNetwork("empty")
	assert.False(t, th.CanHandle(empty, s))

	n := singleChainNetwork(1000, 700, 600)
	assert.True(t, th.CanHandle(n, s))
}

func TestThroughputViaGraphDemandBoundedBelowSupplyAndCapacity(t *testing.T) {
	n := singleChainNetwork(1000, 700, 600)
	s := settings.Defaults()
	s.PreferredSolver = "graph"

	th := NewThroughput()
	r := th.Optimize(context.Background(), n, s)

	require.Equal(t, result.StatusFeasible, r.Status)
	assert.InDelta(t, 600.0, r.ObjectiveValue, 1e-6)
	assert.InDelta(t, 600.0, r.SegmentFlows["S1"].Flow, 1e-6)
}

func TestThroughputViaGraphCappedByCapacityNotDemand(t *testing.T) {
	n := singleChainNetwork(1000, 500, 800)
	s := settings.Defaults()
	s.PreferredSolver = "graph"

	th := NewThroughput()
	r := th.Optimize(context.Background(), n, s)

	require.Equal(t, result.StatusFeasible, r.Status)
	assert.InDelta(t, 500.0, r.SegmentFlows["S1"].Flow, 1e-6)
}

func TestThroughputOptimizeReturnsErrorWhenCannotHandle(t *testing.T) {
	th := NewThroughput()
	s := settings.Defaults()
	empty := domain.NewNetwork("empty")

	r := th.Optimize(context.Background(), empty, s)
	assert.Equal(t, result.StatusError, r.Status)
	assert.NotEmpty(t, r.Messages)
}

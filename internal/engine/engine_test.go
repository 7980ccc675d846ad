package engine

import (
	"context"
	"testing"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/optimize"
	"gaspipeline/internal/rescache"
	"gaspipeline/internal/result"
	"gaspipeline/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feasibleChainNetwork() *domain.Network {
	b := domain.NewBuilder("e")
	b.Receipt("R1", "Receipt 1", 1000, 0, 800, 1000)
	b.Delivery("D1", "Delivery 1", 600, 300, 800)
	b.Segment("S1", "R1->D1", "R1", "D1", 700, 10, 20, 0.01, 0.1)
	return b.Build()
}

func testSettings() *settings.Settings {
	s := settings.Defaults()
	s.PreferredSolver = "graph"
	return s
}

func TestEngineOptimizeUnknownAlgorithm(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	n := feasibleChainNetwork()

	r := e.Optimize(context.Background(), n, "does-not-exist", testSettings())
	require.Equal(t, result.StatusError, r.Status)
	require.NotEmpty(t, r.ValidationErrors)
	assert.Equal(t, "UNKNOWN_ALGORITHM", string(r.ValidationErrors[0].Code))
}

func TestEngineOptimizeRejectsInvalidNetworkUpfront(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	n := domain.NewNetwork("empty")

	r := e.Optimize(context.Background(), n, "throughput", testSettings())
	assert.Equal(t, result.StatusError, r.Status)
	assert.NotEmpty(t, r.ValidationErrors)
}

func TestEngineOptimizeSucceedsOnFeasibleNetwork(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	n := feasibleChainNetwork()

	r := e.Optimize(context.Background(), n, "throughput", testSettings())
	require.Equal(t, result.StatusFeasible, r.Status)
	assert.Empty(t, r.ValidationErrors)
	assert.InDelta(t, 600.0, r.ObjectiveValue, 1e-6)
	assert.NotEmpty(t, r.RunID)
}

func TestEngineOptimizeAssignsDistinctRunIDsPerCall(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	n := feasibleChainNetwork()
	s := testSettings()

	first := e.Optimize(context.Background(), n, "throughput", s)
	second := e.Optimize(context.Background(), n, "throughput", s)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestEngineOptimizeCachesResult(t *testing.T) {
	cache := rescache.NewMemoryCache(nil)
	defer cache.Close()

	e := New(optimize.New(), cache, nil)
	n := feasibleChainNetwork()
	s := testSettings()
	s.CacheEnabled = true

	first := e.Optimize(context.Background(), n, "throughput", s)
	require.Equal(t, result.StatusFeasible, first.Status)

	key := rescache.BuildResultKey(rescache.NetworkHash(n), "throughput", s.AlgorithmParameters)
	exists, err := cache.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)

	second := e.Optimize(context.Background(), n, "throughput", s)
	assert.Equal(t, first.ObjectiveValue, second.ObjectiveValue)
}

func TestEngineTraceIsIndependentOfOptimize(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	n := feasibleChainNetwork()

	tr := e.Trace(n)
	require.True(t, tr.IsNetworkFeasible)
	require.Len(t, tr.Deliveries, 1)
	assert.InDelta(t, 600.0, tr.RequiredFlow[domain.SegmentKey{From: "R1", To: "D1"}], 1e-9)

	for _, s := range n.ActiveSegments() {
		assert.Zero(t, s.CurrentFlow)
	}
}

func TestBatchOptimizePreservesOrder(t *testing.T) {
	e := New(optimize.New(), nil, nil)
	s := testSettings()

	scenarios := []ScenarioRequest{
		{Name: "a", Network: feasibleChainNetwork(), Algorithm: "throughput"},
		{Name: "b", Network: feasibleChainNetwork(), Algorithm: "mincost"},
		{Name: "c", Network: feasibleChainNetwork(), Algorithm: "balance"},
	}

	results := e.BatchOptimize(context.Background(), scenarios, s)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, "b", results[1].Name)
	assert.Equal(t, "c", results[2].Name)
	for _, r := range results {
		assert.NotNil(t, r.Result)
	}
}

package result

import (
	"testing"

	"gaspipeline/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSolvedNetwork() *domain.Network {
	b := domain.NewBuilder("e1")
	b.Receipt("R1", "Receipt 1", 1000, 0, 800, 1000)
	b.Delivery("D1", "Delivery 1", 600, 300, 800)
	b.Delivery("D2", "Delivery 2", 400, 300, 800)
	b.Compressor("C1", "Compressor 1", 400, 0.02, 300, 1200)
	b.Segment("S1", "R1->C1", "R1", "C1", 800, 50, 36, 0.015, 0.10)
	b.Segment("S2", "C1->D1", "C1", "D1", 600, 30, 24, 0.018, 0.12)
	b.Segment("S3", "C1->D2", "C1", "D2", 500, 40, 20, 0.020, 0.15)
	n := b.Build()

	s1, _ := n.GetSegmentByID("S1")
	s1.CurrentFlow = 1000
	s2, _ := n.GetSegmentByID("S2")
	s2.CurrentFlow = 600
	s3, _ := n.GetSegmentByID("S3")
	s3.CurrentFlow = 400
	return n
}

func TestBuildFromNetworkComputesUtilizationAndThroughput(t *testing.T) {
	n := sampleSolvedNetwork()
	flows, pressures, metrics := BuildFromNetwork(n, map[string]float64{}, map[string]float64{}, map[string]float64{})

	require.Len(t, flows, 3)
	assert.InDelta(t, 125.0, flows["S1"].UtilizationPct, 1e-9, "S1 flow 1000 over capacity 800 reports >100% utilization")
	assert.InDelta(t, 1000.0, metrics.TotalThroughput, 1e-9)
	assert.Len(t, pressures, 4)
}

func TestBuildFromNetworkFlagsBottlenecksAboveNinetyPercent(t *testing.T) {
	n := sampleSolvedNetwork()
	_, _, metrics := BuildFromNetwork(n, map[string]float64{}, map[string]float64{}, map[string]float64{})

	require.NotEmpty(t, metrics.Bottlenecks)
	assert.Equal(t, "S1", metrics.Bottlenecks[0].SegmentID, "highest utilization segment sorts first")
	assert.Equal(t, SeverityCritical, metrics.Bottlenecks[0].Severity)
}

func TestSeverityForUtilizationThresholds(t *testing.T) {
	assert.Equal(t, SeverityLow, severityForUtilization(0.5))
	assert.Equal(t, SeverityMedium, severityForUtilization(0.92))
	assert.Equal(t, SeverityHigh, severityForUtilization(0.96))
	assert.Equal(t, SeverityCritical, severityForUtilization(0.995))
}

func TestNewNotSolvedCarriesMessage(t *testing.T) {
	r := NewNotSolved(StatusError, "throughput", "no active receipt")
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, []string{"no active receipt"}, r.Messages)
	assert.NotNil(t, r.SegmentFlows)
}

func TestStatusStringVocabulary(t *testing.T) {
	assert.Equal(t, "Optimal", StatusOptimal.String())
	assert.Equal(t, "Infeasible", StatusInfeasible.String())
	assert.Equal(t, "NotSolved", Status(99).String())
}

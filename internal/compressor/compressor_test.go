package compressor

import (
	"testing"

	"gaspipeline/internal/domain"

	"github.com/stretchr/testify/assert"
)

func sampleCompressor() *domain.Point {
	return &domain.Point{
		ID: "C1", Type: domain.PointTypeCompressor, IsActive: true,
		MinPressure: 300, MaxPressure: 1200, MaxPressureBoost: 400, FuelConsumptionRate: 0.02,
	}
}

func TestBoostCouplingRejectsBoostWhenInactive(t *testing.T) {
	c := sampleCompressor()
	assert.True(t, BoostCoupling(c, false, 0))
	assert.False(t, BoostCoupling(c, false, 10))
	assert.True(t, BoostCoupling(c, true, 400))
	assert.False(t, BoostCoupling(c, true, 401))
}

func TestMinThroughputSatisfied(t *testing.T) {
	coeffs := DefaultCoefficients()
	assert.True(t, MinThroughputSatisfied(coeffs, false, 0))
	assert.False(t, MinThroughputSatisfied(coeffs, true, 5))
	assert.True(t, MinThroughputSatisfied(coeffs, true, 10))
}

func TestFuelRequiredMatchesSpecRelation(t *testing.T) {
	c := sampleCompressor()
	coeffs := DefaultCoefficients()
	fuel := FuelRequired(c, coeffs, true, 800, 100)
	expected := coeffs.BaseFuelRate + c.FuelConsumptionRate*800 + coeffs.BoostFuelRate*100
	assert.InDelta(t, expected, fuel, 1e-9)
}

func TestStagingPlanSplitsRatioAcrossStages(t *testing.T) {
	stages := StagingPlan(8.0, 2.0)
	assert.Len(t, stages, 3)
	for i, s := range stages {
		assert.InDelta(t, 2.0, s.Ratio, 1e-6)
		if i < len(stages)-1 {
			assert.True(t, s.Intercooled)
		} else {
			assert.False(t, s.Intercooled)
		}
	}
}

func TestStagingPlanSingleStageWhenWithinMax(t *testing.T) {
	stages := StagingPlan(1.5, 2.0)
	assert.Len(t, stages, 1)
	assert.InDelta(t, 1.5, stages[0].Ratio, 1e-6)
}

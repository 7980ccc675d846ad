// Package compressor models compressor-station constraints: activation,
// boost, and fuel variables plus their coupling relations, and the
// multi-stage boost heuristic used when a compressor's required ratio
// exceeds what a single stage can deliver.
package compressor

import (
	"math"

	"gaspipeline/internal/domain"
)

// Defaults for the fuel/boost cost coefficients and minimum-throughput
// threshold, resolving spec §9 Open Question 3: kept configurable via
// Settings.AlgorithmParameters, with these values as the cited defaults.
const (
	DefaultFuelCostPerUnit         = 2.50  // $/MMscf fuel consumed
	DefaultBoostCostPerUnit        = 0.001 // $/psi-equivalent boost
	DefaultMinThroughputWhenActive = 10.0  // MMscfd
	DefaultBaseFuelRate            = 0.0
	DefaultBoostFuelRate           = 0.0005
)

// Coefficients bundles the configurable constants the fuel relation and
// cost terms use.
type Coefficients struct {
	FuelCostPerUnit         float64
	BoostCostPerUnit        float64
	MinThroughputWhenActive float64
	BaseFuelRate            float64
	BoostFuelRate           float64
}

// DefaultCoefficients returns the cited defaults from spec §9.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		FuelCostPerUnit:         DefaultFuelCostPerUnit,
		BoostCostPerUnit:        DefaultBoostCostPerUnit,
		MinThroughputWhenActive: DefaultMinThroughputWhenActive,
		BaseFuelRate:            DefaultBaseFuelRate,
		BoostFuelRate:           DefaultBoostFuelRate,
	}
}

// State is the realized decision for one compressor node after a solve: its
// activation flag, boost amount, and fuel consumption.
type State struct {
	PointID    string
	Active     bool
	Boost      float64
	Fuel       float64
	InboundSum float64
}

// FuelRequired returns the minimum fuel consistent with the fuel relation
// `fuel(c) >= base_rate*active + FuelRate(c)*sum_incoming_f +
// boost_fuel_rate*boost(c)` from spec §4.3, given a compressor's own
// FuelConsumptionRate.
func FuelRequired(p *domain.Point, coeffs Coefficients, active bool, inboundFlow, boost float64) float64 {
	var a float64
	if active {
		a = 1
	}
	return coeffs.BaseFuelRate*a + p.FuelConsumptionRate*inboundFlow + coeffs.BoostFuelRate*boost
}

// BoostCoupling reports whether a candidate boost is consistent with the
// coupling constraint `boost(c) <= MaxBoost(c)*active(c)`.
func BoostCoupling(p *domain.Point, active bool, boost float64) bool {
	if !active {
		return boost <= domain.Epsilon
	}
	return boost <= p.MaxPressureBoost+domain.Epsilon
}

// MinThroughputSatisfied reports whether an active compressor's inbound flow
// satisfies the configured minimum-throughput-when-active constraint.
func MinThroughputSatisfied(coeffs Coefficients, active bool, inboundFlow float64) bool {
	if !active {
		return true
	}
	return inboundFlow >= coeffs.MinThroughputWhenActive-domain.Epsilon
}

// FuelCost and BoostCost translate a State into the cost terms spec §4.4.2
// sums into total_cost.
func FuelCost(coeffs Coefficients, s State) float64  { return coeffs.FuelCostPerUnit * s.Fuel }
func BoostCost(coeffs Coefficients, s State) float64 { return coeffs.BoostCostPerUnit * s.Boost }

// Stage is one boost stage of a multi-stage compression train.
type Stage struct {
	Ratio        float64
	Intercooled  bool
}

// StagingPlan breaks a required total pressure ratio R into stages of at
// most maxStageRatio each, per spec §4.3's staging heuristic: the stage
// count is ⌈log R / log r_max⌉, each stage at ratio R^(1/n); every stage
// but the last is marked intercooled.
func StagingPlan(requiredRatio, maxStageRatio float64) []Stage {
	if requiredRatio <= 1 || maxStageRatio <= 1 {
		return []Stage{{Ratio: requiredRatio}}
	}
	n := int(math.Ceil(math.Log(requiredRatio) / math.Log(maxStageRatio)))
	if n < 1 {
		n = 1
	}
	stageRatio := math.Pow(requiredRatio, 1.0/float64(n))

	stages := make([]Stage, n)
	for i := 0; i < n; i++ {
		stages[i] = Stage{Ratio: stageRatio, Intercooled: i < n-1}
	}
	return stages
}

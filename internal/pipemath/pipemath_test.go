package pipemath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeymouthDropConstantMatchesSegmentFormula(t *testing.T) {
	k := WeymouthDropConstant(0.01, 50, 20)
	assert.Greater(t, k, 0.0)
	assert.Zero(t, WeymouthDropConstant(0.01, 50, 0))
}

func TestPressureDropSignConvention(t *testing.T) {
	assert.InDelta(t, 4.0, PressureDrop(1, 2), 1e-9)
	assert.InDelta(t, -4.0, PressureDrop(1, -2), 1e-9)
}

func TestPiecewiseLinearSecantsEnvelopeIsNotBelowCurve(t *testing.T) {
	k := 0.5
	capacity := 100.0
	secants := PiecewiseLinearSecants(k, capacity, 10)
	assert.Len(t, secants, 10)

	for f := 0.0; f <= capacity; f += 7.5 {
		curve := k * f * f
		bound := TightestSecantLowerBound(secants, f)
		assert.GreaterOrEqualf(t, bound, curve-1e-6, "secant envelope must not fall below the true curve at f=%v", f)
	}
}

func TestPiecewiseLinearSecantsClampsSegmentCount(t *testing.T) {
	assert.Len(t, PiecewiseLinearSecants(1, 10, 0), 1)
	assert.Len(t, PiecewiseLinearSecants(1, 10, 1000), 100)
	assert.Nil(t, PiecewiseLinearSecants(1, 0, 10))
}

func TestSolveQuadraticPositiveRoot(t *testing.T) {
	root, ok := SolveQuadraticPositiveRoot(1, 0, -4)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, root, 1e-9)

	_, ok = SolveQuadraticPositiveRoot(1, 0, 4)
	assert.False(t, ok)

	root, ok = SolveQuadraticPositiveRoot(0, 2, -8)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, root, 1e-9)
}

func TestSqrtClampedAtZero(t *testing.T) {
	assert.InDelta(t, 3.0, SqrtClampedAtZero(9), 1e-9)
	assert.Zero(t, SqrtClampedAtZero(-1))
}

func TestUnitConversionsRoundTrip(t *testing.T) {
	psi := 1000.0
	assert.InDelta(t, psi, PascalToPsi(PsiToPascal(psi)), 1e-6)

	mmscfd := 250.0
	assert.InDelta(t, mmscfd, M3PerSecToMMscfd(MMscfdToM3PerSec(mmscfd)), 1e-6)
}

package quadratic

import (
	"context"
	"testing"

	"gaspipeline/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanHandleRejectsBoolVars(t *testing.T) {
	b := New()
	b.MakeNumVar(0, 10, "x")
	assert.True(t, b.CanHandle())

	b.MakeBoolVar("active")
	assert.False(t, b.CanHandle())
}

func TestMinimizeLinearObjectiveWithinBounds(t *testing.T) {
	b := New()
	x := b.MakeNumVar(2, 10, "x")
	b.ObjectiveSetCoefficient(x, 1)
	b.ObjectiveMinimize()

	status := b.Solve(context.Background())
	require.Equal(t, solver.StatusFeasible, status)
	assert.InDelta(t, 2.0, b.Value(x), 0.2)
}

func TestConstraintPenaltyDrivesSumTowardDemand(t *testing.T) {
	b := New()
	x := b.MakeNumVar(0, 50, "x")
	y := b.MakeNumVar(0, 50, "y")

	c := b.MakeConstraint(20, 20, "demand")
	b.SetCoefficient(c, x, 1)
	b.SetCoefficient(c, y, 1)

	b.ObjectiveSetCoefficient(x, 1)
	b.ObjectiveSetCoefficient(y, 1)
	b.ObjectiveMinimize()

	status := b.Solve(context.Background())
	require.Equal(t, solver.StatusFeasible, status)
	assert.InDelta(t, 20.0, b.Value(x)+b.Value(y), 1.0)
}

func TestQuadraticPressureDropRejectedAfterBoolVar(t *testing.T) {
	b := New()
	p1 := b.MakeNumVar(0, 100, "p1sq")
	p2 := b.MakeNumVar(0, 100, "p2sq")
	f := b.MakeNumVar(0, 10, "flow")
	b.MakeBoolVar("active")

	ok := b.AddQuadraticPressureDrop(p1, p2, f, 0.01)
	assert.False(t, ok)
}

func TestQuadraticPressureDropAcceptedWithoutBoolVar(t *testing.T) {
	b := New()
	p1 := b.MakeNumVar(0, 10000, "p1sq")
	p2 := b.MakeNumVar(0, 10000, "p2sq")
	f := b.MakeNumVar(0, 50, "flow")

	ok := b.AddQuadraticPressureDrop(p1, p2, f, 0.02)
	assert.True(t, ok)
}

// Package solver defines the mathematical-programming abstraction every
// optimization algorithm's ViaSolver strategy builds against: numeric and
// boolean decision variables, two-sided linear constraints, and a linear
// objective, solved by a pluggable Backend. internal/solver/simplex and
// internal/solver/quadratic are the two required backends (spec §4.1): an
// LP/MIP backend for the segment-flow and compressor-activation model, and a
// quadratic-capable backend for the direct (non-linearized) pressure drop.
package solver

import "context"

// VarID identifies a decision variable within one Backend instance.
type VarID int

// ConstraintID identifies a two-sided linear constraint within one Backend
// instance.
type ConstraintID int

// Status is the outcome of a Solve call.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusFeasible:
		return "Feasible"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimeout:
		return "Timeout"
	case StatusError:
		return "Error"
	default:
		return "NotSolved"
	}
}

// Backend is the mathematical-programming abstraction of spec §4.1. A
// caller builds a model with MakeNumVar/MakeBoolVar/MakeConstraint/
// SetCoefficient, states an objective, then calls Solve and reads back
// variable values.
type Backend interface {
	// MakeNumVar creates a continuous variable in [lo, hi] and returns its id.
	MakeNumVar(lo, hi float64, name string) VarID

	// MakeBoolVar creates a {0,1} decision variable.
	MakeBoolVar(name string) VarID

	// MakeConstraint creates an inclusive two-sided constraint lo <= row <=
	// hi; coefficients are added afterward via SetCoefficient.
	MakeConstraint(lo, hi float64, name string) ConstraintID

	// SetCoefficient sets variable v's coefficient in constraint c.
	SetCoefficient(c ConstraintID, v VarID, coeff float64)

	// ObjectiveSetCoefficient sets variable v's coefficient in the objective.
	ObjectiveSetCoefficient(v VarID, coeff float64)

	ObjectiveMinimize()
	ObjectiveMaximize()

	// SetTimeLimit bounds wall-clock solve time; 0 means no explicit limit
	// beyond the context passed to Solve.
	SetTimeLimit(ms int)

	// Solve runs the backend and returns the terminal status. The backend
	// must respect ctx cancellation/deadline in addition to any configured
	// time limit.
	Solve(ctx context.Context) Status

	// Value returns v's value in the last solve's solution. Meaningful only
	// after Solve returns StatusOptimal or StatusFeasible.
	Value(v VarID) float64

	// ObjectiveValue returns the objective value of the last solution.
	ObjectiveValue() float64
}

// QuadraticCapable is implemented by backends that accept direct quadratic
// pressure constraints (spec §4.1's "quadratic-capable back-end"); callers
// type-assert for it and fall back to the piecewise-linear formulation via
// internal/pressure when a backend does not implement it, or when its
// AddQuadraticPressureDrop returns false.
type QuadraticCapable interface {
	Backend

	// AddQuadraticPressureDrop adds the constraint p1 - p2 >= k*f*|f|,
	// i.e. pressureSqFrom - pressureSqTo - k*flow^2 >= 0, directly rather
	// than through secant linearization. Returns false if the backend
	// cannot accept it for the current model (e.g. boolean variables are
	// already present).
	AddQuadraticPressureDrop(pressureSqFrom, pressureSqTo, flow VarID, k float64) bool
}

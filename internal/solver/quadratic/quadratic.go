// Package quadratic implements solver.Backend on top of
// gonum.org/v1/gonum/optimize's L-BFGS minimizer applied to a penalized
// objective: the model's linear objective plus a large penalty for every
// bound/constraint violation, including direct (non-linearized) quadratic
// pressure-drop constraints. It accepts models with no boolean variables
// (CanHandle reports false once one is added); spec §4.1 requires callers
// to fall back to the piecewise-linear formulation in that case.
package quadratic

import (
	"context"
	"math"
	"time"

	"gaspipeline/internal/solver"

	"gonum.org/v1/gonum/optimize"
)

const penaltyWeight = 1e6

type varSpec struct {
	lo, hi float64
	isBool bool
}

type linearConstraint struct {
	lo, hi float64
	coeffs map[solver.VarID]float64
}

type quadraticDrop struct {
	from, to, flow solver.VarID
	k              float64
}

// Backend is the penalized-L-BFGS implementation of solver.Backend.
type Backend struct {
	vars        []varSpec
	constraints []linearConstraint
	quadratics  []quadraticDrop
	objective   map[solver.VarID]float64
	maximize    bool
	timeLimitMs int
	hasBool     bool

	status solver.Status
	values []float64
	objVal float64
}

// New returns an empty quadratic-capable model.
func New() *Backend {
	return &Backend{objective: make(map[solver.VarID]float64)}
}

// CanHandle reports whether the current model is still within this
// backend's scope: no boolean variables.
func (b *Backend) CanHandle() bool { return !b.hasBool }

func (b *Backend) MakeNumVar(lo, hi float64, name string) solver.VarID {
	b.vars = append(b.vars, varSpec{lo: lo, hi: hi})
	return solver.VarID(len(b.vars) - 1)
}

func (b *Backend) MakeBoolVar(name string) solver.VarID {
	b.hasBool = true
	b.vars = append(b.vars, varSpec{lo: 0, hi: 1, isBool: true})
	return solver.VarID(len(b.vars) - 1)
}

func (b *Backend) MakeConstraint(lo, hi float64, name string) solver.ConstraintID {
	b.constraints = append(b.constraints, linearConstraint{lo: lo, hi: hi, coeffs: make(map[solver.VarID]float64)})
	return solver.ConstraintID(len(b.constraints) - 1)
}

func (b *Backend) SetCoefficient(c solver.ConstraintID, v solver.VarID, coeff float64) {
	b.constraints[c].coeffs[v] = coeff
}

func (b *Backend) ObjectiveSetCoefficient(v solver.VarID, coeff float64) { b.objective[v] = coeff }
func (b *Backend) ObjectiveMinimize()                                   { b.maximize = false }
func (b *Backend) ObjectiveMaximize()                                   { b.maximize = true }
func (b *Backend) SetTimeLimit(ms int)                                  { b.timeLimitMs = ms }

// AddQuadraticPressureDrop registers a direct p1 - p2 - k*f^2 >= 0
// constraint; it is added to the penalized objective rather than to a
// constraint matrix since L-BFGS optimizes an unconstrained surrogate.
func (b *Backend) AddQuadraticPressureDrop(pressureSqFrom, pressureSqTo, flow solver.VarID, k float64) bool {
	if b.hasBool {
		return false
	}
	b.quadratics = append(b.quadratics, quadraticDrop{from: pressureSqFrom, to: pressureSqTo, flow: flow, k: k})
	return true
}

func (b *Backend) Value(v solver.VarID) float64 {
	if int(v) < 0 || int(v) >= len(b.values) {
		return 0
	}
	return b.values[v]
}

func (b *Backend) ObjectiveValue() float64 { return b.objVal }

// Solve minimizes the penalized surrogate with L-BFGS starting from the
// midpoint of each variable's bounds, then clamps the result back into
// bounds. Reports StatusFeasible for any model with variables (an empty
// model is trivially StatusOptimal) since the penalty method only
// approximately enforces constraints — callers should validate
// the result (internal/pressure.Validate) rather than trust it blindly.
func (b *Backend) Solve(ctx context.Context) solver.Status {
	n := len(b.vars)
	if n == 0 {
		b.status = solver.StatusOptimal
		return b.status
	}

	x0 := make([]float64, n)
	for i, v := range b.vars {
		lo, hi := v.lo, v.hi
		if math.IsInf(lo, -1) {
			lo = -1e6
		}
		if math.IsInf(hi, 1) {
			hi = 1e6
		}
		x0[i] = (lo + hi) / 2
	}

	sign := 1.0
	if b.maximize {
		sign = -1.0
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return sign*b.linearObjective(x) + b.penalty(x)
		},
	}

	settings := &optimize.Settings{}
	if b.timeLimitMs > 0 {
		settings.Runtime = time.Duration(b.timeLimitMs) * time.Millisecond
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		b.status = solver.StatusError
		return b.status
	}

	b.values = make([]float64, n)
	for i, v := range b.vars {
		b.values[i] = clamp(result.X[i], v.lo, v.hi)
	}
	b.objVal = b.linearObjective(b.values)
	b.status = solver.StatusFeasible
	return b.status
}

func (b *Backend) linearObjective(x []float64) float64 {
	var total float64
	for v, coeff := range b.objective {
		total += coeff * x[v]
	}
	return total
}

// penalty sums squared violations of variable bounds, linear constraints,
// and quadratic pressure-drop constraints, each scaled by penaltyWeight so
// the unconstrained minimizer is pushed toward the feasible region.
func (b *Backend) penalty(x []float64) float64 {
	var total float64

	for i, v := range b.vars {
		if x[i] < v.lo {
			d := v.lo - x[i]
			total += penaltyWeight * d * d
		}
		if x[i] > v.hi {
			d := x[i] - v.hi
			total += penaltyWeight * d * d
		}
	}

	for _, c := range b.constraints {
		var row float64
		for v, coeff := range c.coeffs {
			row += coeff * x[v]
		}
		if !math.IsInf(c.lo, -1) && row < c.lo {
			d := c.lo - row
			total += penaltyWeight * d * d
		}
		if !math.IsInf(c.hi, 1) && row > c.hi {
			d := row - c.hi
			total += penaltyWeight * d * d
		}
	}

	for _, q := range b.quadratics {
		drop := x[q.from] - x[q.to] - q.k*x[q.flow]*x[q.flow]
		if drop < 0 {
			total += penaltyWeight * drop * drop
		}
	}

	return total
}

func clamp(v, lo, hi float64) float64 {
	if !math.IsInf(lo, -1) && v < lo {
		return lo
	}
	if !math.IsInf(hi, 1) && v > hi {
		return hi
	}
	return v
}

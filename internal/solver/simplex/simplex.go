// Package simplex implements solver.Backend with an in-process Big-M
// simplex and a branch-and-bound wrapper for boolean variables. It
// exists so the engine can run end to end without an external MIP library,
// per spec §9's design note ("enables an in-process simplex for testing
// without an external dependency"); gonum.org/v1/gonum/mat supplies the
// dense tableau arithmetic, adequate at this problem's scale (tens to low
// hundreds of segments).
package simplex

import (
	"context"
	"math"
	"time"

	"gaspipeline/internal/solver"
)

const bigM = 1e7

type varSpec struct {
	lo, hi float64
	isBool bool
	name   string
}

type consSpec struct {
	lo, hi float64
	name   string
	coeffs map[solver.VarID]float64
}

// Backend is the native simplex implementation of solver.Backend.
type Backend struct {
	vars        []varSpec
	constraints []consSpec
	objective   map[solver.VarID]float64
	maximize    bool
	timeLimitMs int

	status Status
	values []float64
	objVal float64
}

// Status is an alias of solver.Status; Solve returns it unchanged.
type Status = solver.Status

// New returns an empty model.
func New() *Backend {
	return &Backend{objective: make(map[solver.VarID]float64)}
}

func (b *Backend) MakeNumVar(lo, hi float64, name string) solver.VarID {
	b.vars = append(b.vars, varSpec{lo: lo, hi: hi, name: name})
	return solver.VarID(len(b.vars) - 1)
}

func (b *Backend) MakeBoolVar(name string) solver.VarID {
	b.vars = append(b.vars, varSpec{lo: 0, hi: 1, isBool: true, name: name})
	return solver.VarID(len(b.vars) - 1)
}

func (b *Backend) MakeConstraint(lo, hi float64, name string) solver.ConstraintID {
	b.constraints = append(b.constraints, consSpec{lo: lo, hi: hi, name: name, coeffs: make(map[solver.VarID]float64)})
	return solver.ConstraintID(len(b.constraints) - 1)
}

func (b *Backend) SetCoefficient(c solver.ConstraintID, v solver.VarID, coeff float64) {
	b.constraints[c].coeffs[v] = coeff
}

func (b *Backend) ObjectiveSetCoefficient(v solver.VarID, coeff float64) {
	b.objective[v] = coeff
}

func (b *Backend) ObjectiveMinimize() { b.maximize = false }
func (b *Backend) ObjectiveMaximize() { b.maximize = true }

func (b *Backend) SetTimeLimit(ms int) { b.timeLimitMs = ms }

func (b *Backend) Value(v solver.VarID) float64 {
	if int(v) < 0 || int(v) >= len(b.values) {
		return 0
	}
	return b.values[v]
}

func (b *Backend) ObjectiveValue() float64 { return b.objVal }

// Solve builds the standard-form tableau, runs Big-M simplex, and — if any
// variable is boolean — wraps it in branch-and-bound. Deadline is taken as
// the earlier of ctx's deadline and SetTimeLimit.
func (b *Backend) Solve(ctx context.Context) solver.Status {
	deadline := time.Now().Add(24 * time.Hour)
	if b.timeLimitMs > 0 {
		deadline = time.Now().Add(time.Duration(b.timeLimitMs) * time.Millisecond)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	hasBool := false
	for _, v := range b.vars {
		if v.isBool {
			hasBool = true
			break
		}
	}

	var result nodeResult
	if hasBool {
		result = branchAndBound(b, ctx, deadline)
	} else {
		bounds := make([]bound, len(b.vars))
		for i, v := range b.vars {
			bounds[i] = bound{lo: v.lo, hi: v.hi}
		}
		result = solveRelaxation(b, bounds, ctx, deadline)
	}

	b.status = result.status
	b.values = result.values
	b.objVal = result.objective
	return b.status
}

type bound struct{ lo, hi float64 }

type nodeResult struct {
	status    solver.Status
	values    []float64
	objective float64
}

func isTimedOut(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return time.Now().After(deadline)
}

// minimizeObjective returns the internal minimize-sense objective vector: for a
// maximize model the coefficients are negated so the tableau always
// minimizes, and the sign is flipped back on the reported objective value.
func (b *Backend) minimizeObjective() map[solver.VarID]float64 {
	if !b.maximize {
		return b.objective
	}
	neg := make(map[solver.VarID]float64, len(b.objective))
	for v, c := range b.objective {
		neg[v] = -c
	}
	return neg
}

func (b *Backend) reportObjective(internalMin float64) float64 {
	if b.maximize {
		return -internalMin
	}
	return internalMin
}

// solveRelaxation solves the LP relaxation with the given per-variable
// bounds overriding the model's own (used by branch-and-bound to tighten
// boolean variables), returning values indexed by the model's own VarID
// space.
func solveRelaxation(b *Backend, bounds []bound, ctx context.Context, deadline time.Time) nodeResult {
	if isTimedOut(ctx, deadline) {
		return nodeResult{status: solver.StatusTimeout}
	}

	sf := buildStandardForm(b, bounds)
	tab, status := sf.solve(ctx, deadline)
	if status != solver.StatusOptimal {
		return nodeResult{status: status}
	}

	values := make([]float64, len(b.vars))
	for j := 0; j < len(b.vars); j++ {
		y := tab.variableValue(j)
		values[j] = bounds[j].lo + y
	}

	return nodeResult{
		status:    solver.StatusOptimal,
		values:    values,
		objective: b.reportObjective(tab.objectiveValue()),
	}
}

func boolIsIntegral(v, lo, hi float64) bool {
	if hi-lo < 1e-9 {
		return true
	}
	return math.Abs(v-math.Round(v)) < 1e-6
}

package simplex

import (
	"context"
	"math"
	"time"

	"gaspipeline/internal/domain"
	"gaspipeline/internal/solver"

	"gonum.org/v1/gonum/mat"
)

// stdRow is one row of the standard-form model before slack/artificial
// columns are assigned: lo <= coeffs·y <= hi becomes one or two of these,
// each eventually an equality constraint with an appended slack, surplus,
// or artificial variable.
type stdRow struct {
	coeffs []float64
	rhs    float64
	kind   string // "<=", ">=", "="
}

// standardForm is the Big-M-ready model: every row is an equality over the
// original y-variables plus exactly the slack/surplus/artificial columns it
// needs.
type standardForm struct {
	nY       int
	rows     []stdRow
	realCost []float64 // length nY, the model's own objective coefficients
}

func unitRow(n, idx int) []float64 {
	r := make([]float64, n)
	r[idx] = 1
	return r
}

// buildStandardForm shifts every variable to a nonnegative y = x - lo, adds
// explicit upper-bound rows for finite bounds, and splits every two-sided
// user constraint into one or two one-sided rows (an equality when lo == hi).
func buildStandardForm(b *Backend, bounds []bound) *standardForm {
	nY := len(b.vars)
	var rows []stdRow

	for j, v := range bounds {
		if !math.IsInf(v.lo, -1) && !math.IsInf(v.hi, 1) {
			width := v.hi - v.lo
			rows = append(rows, stdRow{coeffs: unitRow(nY, j), rhs: width, kind: "<="})
		}
	}

	for _, c := range b.constraints {
		coeffs := make([]float64, nY)
		var shift float64
		for v, coeff := range c.coeffs {
			coeffs[int(v)] = coeff
			shift += coeff * bounds[int(v)].lo
		}
		lo, hi := c.lo, c.hi
		loPrime, hiPrime := lo, hi
		if !math.IsInf(lo, -1) {
			loPrime = lo - shift
		}
		if !math.IsInf(hi, 1) {
			hiPrime = hi - shift
		}

		switch {
		case !math.IsInf(lo, -1) && !math.IsInf(hi, 1) && math.Abs(hi-lo) < domain.Epsilon:
			rows = append(rows, stdRow{coeffs: coeffs, rhs: loPrime, kind: "="})
		default:
			if !math.IsInf(hi, 1) {
				rows = append(rows, stdRow{coeffs: append([]float64(nil), coeffs...), rhs: hiPrime, kind: "<="})
			}
			if !math.IsInf(lo, -1) {
				rows = append(rows, stdRow{coeffs: append([]float64(nil), coeffs...), rhs: loPrime, kind: ">="})
			}
		}
	}

	realCost := make([]float64, nY)
	for v, coeff := range b.minimizeObjective() {
		realCost[int(v)] = coeff
	}

	return &standardForm{nY: nY, rows: rows, realCost: realCost}
}

type rowExtra struct {
	slackCol, surplusCol, artificialCol int
}

type tableau struct {
	t            *mat.Dense // nRows x (totalCols+1), last column is RHS
	basis        []int
	cost         []float64 // tableau (Big-M-weighted) minimize cost, length totalCols
	realCost     []float64 // length totalCols, zero for slack/surplus/artificial
	totalCols    int
	nRows        int
	artificials  map[int]bool
}

// solve normalizes every row to a nonnegative RHS, assigns slack/surplus/
// artificial columns, and runs Big-M primal simplex with Bland's rule to
// avoid cycling.
func (sf *standardForm) solve(ctx context.Context, deadline time.Time) (*tableau, solver.Status) {
	rows := make([]stdRow, len(sf.rows))
	copy(rows, sf.rows)
	for i, r := range rows {
		if r.rhs < 0 {
			neg := make([]float64, len(r.coeffs))
			for k, v := range r.coeffs {
				neg[k] = -v
			}
			kind := r.kind
			switch kind {
			case "<=":
				kind = ">="
			case ">=":
				kind = "<="
			}
			rows[i] = stdRow{coeffs: neg, rhs: -r.rhs, kind: kind}
		}
	}

	nExtra := 0
	extras := make([]rowExtra, len(rows))
	for i, r := range rows {
		e := rowExtra{-1, -1, -1}
		switch r.kind {
		case "<=":
			e.slackCol = sf.nY + nExtra
			nExtra++
		case ">=":
			e.surplusCol = sf.nY + nExtra
			nExtra++
			e.artificialCol = sf.nY + nExtra
			nExtra++
		case "=":
			e.artificialCol = sf.nY + nExtra
			nExtra++
		}
		extras[i] = e
	}

	totalCols := sf.nY + nExtra
	nRows := len(rows)

	data := make([]float64, nRows*(totalCols+1))
	t := mat.NewDense(nRows, totalCols+1, data)
	basis := make([]int, nRows)
	artificials := make(map[int]bool)

	for i, r := range rows {
		for j, c := range r.coeffs {
			t.Set(i, j, c)
		}
		e := extras[i]
		switch r.kind {
		case "<=":
			t.Set(i, e.slackCol, 1)
			basis[i] = e.slackCol
		case ">=":
			t.Set(i, e.surplusCol, -1)
			t.Set(i, e.artificialCol, 1)
			basis[i] = e.artificialCol
			artificials[e.artificialCol] = true
		case "=":
			t.Set(i, e.artificialCol, 1)
			basis[i] = e.artificialCol
			artificials[e.artificialCol] = true
		}
		t.Set(i, totalCols, r.rhs)
	}

	cost := make([]float64, totalCols)
	realCost := make([]float64, totalCols)
	copy(cost, sf.realCost)
	copy(realCost, sf.realCost)
	for col := range artificials {
		cost[col] += bigM
	}

	tab := &tableau{t: t, basis: basis, cost: cost, realCost: realCost, totalCols: totalCols, nRows: nRows, artificials: artificials}

	status := tab.run(ctx, deadline)
	return tab, status
}

const maxIterations = 20000

func (tab *tableau) run(ctx context.Context, deadline time.Time) solver.Status {
	for iter := 0; iter < maxIterations; iter++ {
		if iter%64 == 0 && isTimedOut(ctx, deadline) {
			return solver.StatusTimeout
		}

		enterCol := tab.chooseEnteringColumn()
		if enterCol < 0 {
			break // optimal
		}

		leaveRow := tab.chooseLeavingRow(enterCol)
		if leaveRow < 0 {
			return solver.StatusUnbounded
		}

		tab.pivot(leaveRow, enterCol)
	}

	for i, col := range tab.basis {
		if tab.artificials[col] && tab.t.At(i, tab.totalCols) > 1e-6 {
			return solver.StatusInfeasible
		}
	}
	return solver.StatusOptimal
}

// chooseEnteringColumn applies Bland's rule: the lowest-indexed column with
// a negative reduced cost. Bland's rule trades iteration count for a
// cycling-free guarantee, acceptable at this problem's scale.
func (tab *tableau) chooseEnteringColumn() int {
	cB := make([]float64, tab.nRows)
	for i, col := range tab.basis {
		cB[i] = tab.cost[col]
	}

	for j := 0; j < tab.totalCols; j++ {
		var zj float64
		for i := 0; i < tab.nRows; i++ {
			zj += cB[i] * tab.t.At(i, j)
		}
		reduced := tab.cost[j] - zj
		if reduced < -1e-7 {
			return j
		}
	}
	return -1
}

func (tab *tableau) chooseLeavingRow(col int) int {
	best := -1
	bestRatio := math.Inf(1)
	bestBasis := math.MaxInt64
	for i := 0; i < tab.nRows; i++ {
		a := tab.t.At(i, col)
		if a <= 1e-9 {
			continue
		}
		ratio := tab.t.At(i, tab.totalCols) / a
		if ratio < bestRatio-1e-9 {
			best = i
			bestRatio = ratio
			bestBasis = tab.basis[i]
		} else if ratio < bestRatio+1e-9 && tab.basis[i] < bestBasis {
			best = i
			bestBasis = tab.basis[i]
		}
	}
	return best
}

func (tab *tableau) pivot(row, col int) {
	pivotVal := tab.t.At(row, col)
	for j := 0; j <= tab.totalCols; j++ {
		tab.t.Set(row, j, tab.t.At(row, j)/pivotVal)
	}
	for i := 0; i < tab.nRows; i++ {
		if i == row {
			continue
		}
		factor := tab.t.At(i, col)
		if factor == 0 {
			continue
		}
		for j := 0; j <= tab.totalCols; j++ {
			tab.t.Set(i, j, tab.t.At(i, j)-factor*tab.t.At(row, j))
		}
	}
	tab.basis[row] = col
}

// variableValue returns column col's value in the current basic solution.
func (tab *tableau) variableValue(col int) float64 {
	for i, basisCol := range tab.basis {
		if basisCol == col {
			return tab.t.At(i, tab.totalCols)
		}
	}
	return 0
}

func (tab *tableau) objectiveValue() float64 {
	var total float64
	for i, col := range tab.basis {
		total += tab.realCost[col] * tab.t.At(i, tab.totalCols)
	}
	return total
}

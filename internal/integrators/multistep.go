package integrators

import (
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Adams-Bashforth weights for f_n, f_{n-1}, ...
var abCoeffs = [][]float64{
	1: {1},
	2: {3.0 / 2.0, -1.0 / 2.0},
	3: {23.0 / 12.0, -16.0 / 12.0, 5.0 / 12.0},
	4: {55.0 / 24.0, -59.0 / 24.0, 37.0 / 24.0, -9.0 / 24.0},
}

// Adams-Moulton weights for f_{n+1}, f_n, f_{n-1}, ...
var amCoeffs = [][]float64{
	1: {1},
	2: {1.0 / 2.0, 1.0 / 2.0},
	3: {5.0 / 12.0, 8.0 / 12.0, -1.0 / 12.0},
	4: {9.0 / 24.0, 19.0 / 24.0, -5.0 / 24.0, 1.0 / 24.0},
}

// BDF: y_{n+1} = sum(alpha_j * y_{n-j}) + beta*h*f_{n+1}.
var bdfCoeffs = []struct {
	beta  float64
	alpha []float64
}{
	1: {1, []float64{1}},
	2: {2.0 / 3.0, []float64{4.0 / 3.0, -1.0 / 3.0}},
	3: {6.0 / 11.0, []float64{18.0 / 11.0, -9.0 / 11.0, 2.0 / 11.0}},
	4: {12.0 / 25.0, []float64{48.0 / 25.0, -36.0 / 25.0, 16.0 / 25.0, -3.0 / 25.0}},
}

const maxHistory = 4

// Multistep runs the Adams and BDF families on a uniform internal step.
// Until enough history has accumulated (at the start, or after the step
// size changes) Adams-Bashforth bootstraps with RK4 and the implicit
// families fall back to their lower orders so stiff problems stay stable.
type Multistep struct {
	fam    family
	order  int
	rk     *RK4
	newton *newton
	h      float64
	xs     []dynamo.State // most recent first
	fs     []dynamo.State
}

func NewMultistep(m Method, cfg Config) *Multistep {
	info := methods[m]
	return &Multistep{
		fam:    info.family,
		order:  info.order,
		rk:     NewRK4(),
		newton: newNewton(cfg),
	}
}

// needed is the number of past points the formula consumes.
func (ms *Multistep) needed() int {
	switch ms.fam {
	case familyAM:
		if ms.order > 1 {
			return ms.order - 1
		}
		return 1
	default:
		return ms.order
	}
}

func (ms *Multistep) reset() {
	ms.xs = ms.xs[:0]
	ms.fs = ms.fs[:0]
}

func (ms *Multistep) push(x, f dynamo.State) {
	ms.xs = append([]dynamo.State{x}, ms.xs...)
	ms.fs = append([]dynamo.State{f}, ms.fs...)
	if len(ms.xs) > maxHistory {
		ms.xs = ms.xs[:maxHistory]
		ms.fs = ms.fs[:maxHistory]
	}
}

func (ms *Multistep) step(dyn dynamo.System, t float64, x dynamo.State, h float64, st *Stats) (dynamo.State, error) {
	if ms.h == 0 || math.Abs(h-ms.h) > 1e-9*ms.h {
		ms.reset()
		ms.h = h
	}
	if len(ms.xs) == 0 {
		ms.push(x.Clone(), dyn.Derive(x, t))
		st.Evaluations++
	}

	order := ms.order
	if have := len(ms.xs); have < ms.needed() {
		switch ms.fam {
		case familyAB:
			order = 0
		case familyAM:
			order = have + 1
		case familyBDF:
			order = have
		}
	}

	var next dynamo.State
	var err error

	switch {
	case order == 0:
		next = ms.rk.Step(dyn, x, t, h)
		st.Evaluations += 4
	case ms.fam == familyAB:
		next = x.Clone()
		for j, b := range abCoeffs[order] {
			floats.AddScaled(next, h*b, ms.fs[j])
		}
	case ms.fam == familyAM:
		w := amCoeffs[order]
		c := x.Clone()
		for j := 1; j < len(w); j++ {
			floats.AddScaled(c, h*w[j], ms.fs[j-1])
		}
		next, err = ms.newton.solve(dyn, t+h, c, h*w[0], x, st)
	case ms.fam == familyBDF:
		coeffs := bdfCoeffs[order]
		c := make(dynamo.State, len(x))
		for j, a := range coeffs.alpha {
			floats.AddScaled(c, a, ms.xs[j])
		}
		next, err = ms.newton.solve(dyn, t+h, c, h*coeffs.beta, x, st)
	}
	if err != nil {
		ms.reset()
		return nil, err
	}

	ms.push(next, dyn.Derive(next, t+h))
	st.Evaluations++
	return next, nil
}

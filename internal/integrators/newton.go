package integrators

import (
	"errors"
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errSingularJacobian = errors.New("iteration matrix is singular")
	errNewton           = errors.New("newton iteration did not converge")
)

// newton solves the implicit stage equation y = c + gamma*f(t, y) that
// both Adams-Moulton and BDF steps reduce to.
type newton struct {
	tol     float64
	maxIter int
	jac     *mat.Dense
	lu      mat.LU
	delta   mat.VecDense
	g       []float64
}

func newNewton(cfg Config) *newton {
	return &newton{tol: cfg.NewtonTol, maxIter: cfg.MaxNewtonIter}
}

func (nw *newton) solve(dyn dynamo.System, t float64, c dynamo.State, gamma float64, guess dynamo.State, st *Stats) (dynamo.State, error) {
	n := len(c)
	if nw.jac == nil || len(nw.g) != n {
		nw.jac = mat.NewDense(n, n, nil)
		nw.g = make([]float64, n)
		nw.delta.Reset()
	}

	y := guess.Clone()

	// The Jacobian is frozen for the whole stage solve.
	fd.Jacobian(nw.jac, func(dst, x []float64) {
		copy(dst, dyn.Derive(x, t))
	}, y, &fd.JacobianSettings{Formula: fd.Central})
	st.Evaluations += 2 * n

	nw.jac.Scale(-gamma, nw.jac)
	for i := 0; i < n; i++ {
		nw.jac.Set(i, i, nw.jac.At(i, i)+1)
	}
	nw.lu.Factorize(nw.jac)
	if math.IsInf(nw.lu.Cond(), 1) {
		return nil, errSingularJacobian
	}

	for iter := 0; iter < nw.maxIter; iter++ {
		f := dyn.Derive(y, t)
		st.Evaluations++

		for i := range nw.g {
			nw.g[i] = c[i] + gamma*f[i] - y[i]
		}
		if err := nw.lu.SolveVecTo(&nw.delta, false, mat.NewVecDense(n, nw.g)); err != nil {
			return nil, err
		}

		d := nw.delta.RawVector().Data
		floats.Add(y, d)
		st.NewtonIterations++

		if !y.IsValid() {
			return nil, dynamo.ErrInvalidState
		}
		if floats.Norm(d, math.Inf(1)) <= nw.tol*(1+floats.Norm(y, math.Inf(1))) {
			return y, nil
		}
	}

	return nil, errNewton
}

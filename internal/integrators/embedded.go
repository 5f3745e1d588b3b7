package integrators

import (
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

// tableau is an embedded Runge-Kutta pair. b propagates the solution,
// bHat is the lower-order companion used for the error estimate.
type tableau struct {
	c    []float64
	a    [][]float64
	b    []float64
	bHat []float64
}

// Fehlberg 4(5) coefficients
var fehlberg = &tableau{
	c: []float64{0, 1.0 / 4.0, 3.0 / 8.0, 12.0 / 13.0, 1, 1.0 / 2.0},
	a: [][]float64{
		{},
		{1.0 / 4.0},
		{3.0 / 32.0, 9.0 / 32.0},
		{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
		{439.0 / 216.0, -8, 3680.0 / 513.0, -845.0 / 4104.0},
		{-8.0 / 27.0, 2, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0},
	},
	b:    []float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -9.0 / 50.0, 2.0 / 55.0},
	bHat: []float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -1.0 / 5.0, 0},
}

// Cash-Karp 4(5) coefficients
var cashKarp = &tableau{
	c: []float64{0, 1.0 / 5.0, 3.0 / 10.0, 3.0 / 5.0, 1, 7.0 / 8.0},
	a: [][]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{3.0 / 10.0, -9.0 / 10.0, 6.0 / 5.0},
		{-11.0 / 54.0, 5.0 / 2.0, -70.0 / 27.0, 35.0 / 27.0},
		{1631.0 / 55296.0, 175.0 / 512.0, 575.0 / 13824.0, 44275.0 / 110592.0, 253.0 / 4096.0},
	},
	b:    []float64{37.0 / 378.0, 0, 250.0 / 621.0, 125.0 / 594.0, 0, 512.0 / 1771.0},
	bHat: []float64{2825.0 / 27648.0, 0, 18575.0 / 48384.0, 13525.0 / 55296.0, 277.0 / 14336.0, 1.0 / 4.0},
}

type Embedded struct {
	tab      *tableau
	safety   float64
	minScale float64
	maxScale float64
	k        []dynamo.State
}

func NewEmbedded(m Method) *Embedded {
	tab := fehlberg
	if m == CashKarp {
		tab = cashKarp
	}
	return &Embedded{
		tab:      tab,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		k:        make([]dynamo.State, len(tab.b)),
	}
}

// Try takes one step of size h and returns the new state together with
// the scaled error norm; the step is acceptable when the norm is <= 1.
func (e *Embedded) Try(dyn dynamo.System, x dynamo.State, t, h float64, cfg Config) (dynamo.State, float64) {
	n := len(x)
	tab := e.tab

	stage := make(dynamo.State, n)
	for s := range tab.b {
		copy(stage, x)
		for j, a := range tab.a[s] {
			for i := 0; i < n; i++ {
				stage[i] += h * a * e.k[j][i]
			}
		}
		e.k[s] = dyn.Derive(stage, t+tab.c[s]*h)
	}

	xNew := x.Clone()
	errMax := 0.0
	for i := 0; i < n; i++ {
		var hi, lo float64
		for s := range tab.b {
			hi += tab.b[s] * e.k[s][i]
			lo += tab.bHat[s] * e.k[s][i]
		}
		xNew[i] += h * hi
		errEst := h * (hi - lo)
		scale := cfg.AbsTol + cfg.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax
}

// nextStep proposes the following step size from the error norm.
func (e *Embedded) nextStep(h, errRatio float64) float64 {
	if errRatio > 1 {
		return h * math.Max(e.minScale, e.safety*math.Pow(errRatio, -0.25))
	}
	if errRatio > 0 {
		return h * math.Min(e.maxScale, e.safety*math.Pow(errRatio, -0.2))
	}
	return h * e.maxScale
}

// advance integrates from t0 to exactly t1, adapting *h along the way.
func (e *Embedded) advance(dyn dynamo.System, t0, t1 float64, x dynamo.State, h *float64, cfg Config, st *Stats) (dynamo.State, error) {
	t := t0
	for t < t1 {
		if st.Steps+st.Rejected >= cfg.MaxSteps {
			return nil, dynamo.Diverged(st.Steps, t, x, dynamo.ErrStepBudget)
		}

		rem := t1 - t
		hh, last := *h, false
		if hh >= rem*(1-1e-9) {
			hh, last = rem, true
		}

		xNew, errRatio := e.Try(dyn, x, t, hh, cfg)
		st.Evaluations += len(e.tab.b)

		if !xNew.IsValid() || math.IsNaN(errRatio) {
			st.Rejected++
			*h = hh * e.minScale
		} else if errRatio <= 1 {
			st.Steps++
			x = xNew
			if last {
				t = t1
				*h = math.Max(*h, e.nextStep(hh, errRatio))
			} else {
				t += hh
				*h = e.nextStep(hh, errRatio)
			}
			continue
		} else {
			st.Rejected++
			*h = e.nextStep(hh, errRatio)
		}

		if *h < cfg.MinStep {
			return nil, dynamo.Diverged(st.Steps, t, x, dynamo.ErrStepTooSmall)
		}
	}
	return x, nil
}

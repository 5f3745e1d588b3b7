package integrators

import (
	"github.com/san-kum/pbpksim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// RK4 is the classical fourth-order Runge-Kutta step. Stage buffers are
// reused between calls, so an RK4 must not be shared across goroutines.
type RK4 struct {
	k   [4]dynamo.State
	tmp dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.tmp) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.tmp = make(dynamo.State, n)
}

// Step advances x by dt and returns a new state.
func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := 0.5 * dt

	copy(r.k[0], dyn.Derive(x, t))
	floats.AddScaledTo(r.tmp, x, half, r.k[0])
	copy(r.k[1], dyn.Derive(r.tmp, t+half))
	floats.AddScaledTo(r.tmp, x, half, r.k[1])
	copy(r.k[2], dyn.Derive(r.tmp, t+half))
	floats.AddScaledTo(r.tmp, x, dt, r.k[2])
	copy(r.k[3], dyn.Derive(r.tmp, t+dt))

	out := x.Clone()
	w := dt / 6
	floats.AddScaled(out, w, r.k[0])
	floats.AddScaled(out, 2*w, r.k[1])
	floats.AddScaled(out, 2*w, r.k[2])
	floats.AddScaled(out, w, r.k[3])
	return out
}

func (r *RK4) step(dyn dynamo.System, t float64, x dynamo.State, h float64, st *Stats) (dynamo.State, error) {
	st.Evaluations += 4
	return r.Step(dyn, x, t, h), nil
}

package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

// Stats reports the internal work of one integration.
type Stats struct {
	Steps            int `json:"steps"`
	Rejected         int `json:"rejected"`
	Evaluations      int `json:"evaluations"`
	NewtonIterations int `json:"newton_iterations"`
}

// Solution holds the state at every requested output time.
type Solution struct {
	Method Method
	Times  []float64
	States []dynamo.State
	Stats  Stats
}

type stepper interface {
	step(dyn dynamo.System, t float64, x dynamo.State, h float64, st *Stats) (dynamo.State, error)
}

func newStepper(m Method, cfg Config) stepper {
	if methods[m].family == familyRK {
		return NewRK4()
	}
	return NewMultistep(m, cfg)
}

func intervals(horizon, dt float64) float64 {
	return math.Floor(horizon/dt + 1e-9)
}

// Grid returns the output times 0, dt, 2dt, ... up to and including the
// last multiple of dt not beyond horizon. The size is unbounded; use
// SampleGrid for caller-supplied horizons.
func Grid(horizon, dt float64) []float64 {
	n := int(intervals(horizon, dt))
	times := make([]float64, n+1)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times
}

// SampleGrid is Grid bounded by the step budget of cfg. Every output
// interval takes at least one internal step, so a grid with more
// intervals than cfg.MaxSteps fails before anything is allocated.
func SampleGrid(horizon, dt float64, cfg Config) ([]float64, error) {
	if n := intervals(horizon, dt); n > float64(cfg.MaxSteps) {
		return nil, dynamo.Diverged(0, 0, nil,
			fmt.Errorf("%w: %g output intervals exceed max_steps %d", dynamo.ErrStepBudget, n, cfg.MaxSteps))
	}
	return Grid(horizon, dt), nil
}

// Integrate solves dyn from x0 at times[0] and samples it at every entry
// of times, which must be strictly increasing.
func Integrate(dyn dynamo.System, method Method, x0 dynamo.State, times []float64, cfg Config) (*Solution, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("integrator config: %w", err)
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if !x0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("integrate: no output times")
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("integrate: output times must be strictly increasing at index %d", i)
		}
	}

	sol := &Solution{
		Method: method,
		Times:  append([]float64(nil), times...),
		States: make([]dynamo.State, 0, len(times)),
	}
	sol.States = append(sol.States, x0.Clone())

	x := x0.Clone()

	if method.Adaptive() {
		emb := NewEmbedded(method)
		h := cfg.InitialStep
		if h <= 0 && len(times) > 1 {
			h = 0.1 * (times[1] - times[0])
		}
		for k := 1; k < len(times); k++ {
			var err error
			x, err = emb.advance(dyn, times[k-1], times[k], x, &h, cfg, &sol.Stats)
			if err != nil {
				return nil, err
			}
			sol.States = append(sol.States, x.Clone())
		}
		return sol, nil
	}

	s := newStepper(method, cfg)
	for k := 1; k < len(times); k++ {
		t := times[k-1]
		span := times[k] - t
		n := int(math.Ceil(span/cfg.MaxStep - 1e-9))
		if n < 1 {
			n = 1
		}
		h := span / float64(n)

		for i := 0; i < n; i++ {
			if sol.Stats.Steps >= cfg.MaxSteps {
				return nil, dynamo.Diverged(sol.Stats.Steps, t, x, dynamo.ErrStepBudget)
			}
			next, err := s.step(dyn, t, x, h, &sol.Stats)
			if err != nil {
				return nil, dynamo.Diverged(sol.Stats.Steps, t, x, err)
			}
			if !next.IsValid() {
				return nil, dynamo.Diverged(sol.Stats.Steps, t, x, dynamo.ErrInvalidState)
			}
			x = next
			t += h
			sol.Stats.Steps++
		}
		sol.States = append(sol.States, x.Clone())
	}

	return sol, nil
}

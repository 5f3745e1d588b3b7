package pbpk

import (
	"fmt"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
)

// Saturable marks a compartment with a finite binding capacity.
type Saturable struct {
	Compartment string
	Capacity    float64
}

// Problem is a fully parameterised ODE ready to integrate. Compartments
// gives the name of each state entry in order.
type Problem struct {
	System       dynamo.System
	Initial      dynamo.State
	Compartments []string
	Saturable    []Saturable
}

// CapacityWarning flags a sample where a saturable compartment holds
// more activity than its capacity. It does not abort the simulation.
type CapacityWarning struct {
	Step        int     `json:"step"`
	Time        float64 `json:"time"`
	Compartment string  `json:"compartment"`
	Activity    float64 `json:"activity"`
	Capacity    float64 `json:"capacity"`
}

func (w CapacityWarning) Error() string {
	return fmt.Sprintf("%s at t=%g: activity %g exceeds capacity %g", w.Compartment, w.Time, w.Activity, w.Capacity)
}

func (w CapacityWarning) Unwrap() error { return dynamo.ErrOutOfCapacity }

// Trajectory is the sampled result of one simulation.
type Trajectory struct {
	Times        []float64          `json:"times"`
	States       []dynamo.State     `json:"states"`
	Compartments []string           `json:"compartments"`
	Warnings     []CapacityWarning  `json:"warnings,omitempty"`
	Solver       integrators.Method `json:"solver"`
	Stats        integrators.Stats  `json:"stats"`
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Index returns the state column of a compartment, or -1.
func (tr *Trajectory) Index(name string) int {
	for i, c := range tr.Compartments {
		if c == name {
			return i
		}
	}
	return -1
}

// Series extracts one compartment's activity over time.
func (tr *Trajectory) Series(name string) ([]float64, error) {
	idx := tr.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: compartment %q", dynamo.ErrKeyNotFound, name)
	}
	out := make([]float64, len(tr.States))
	for i, x := range tr.States {
		out[i] = x[idx]
	}
	return out, nil
}

// Total is the activity summed over all compartments at sample i.
func (tr *Trajectory) Total(i int) float64 { return tr.States[i].Sum() }

func (tr *Trajectory) Final() dynamo.State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Warned reports whether any sample exceeded a capacity.
func (tr *Trajectory) Warned() bool { return len(tr.Warnings) > 0 }

// Solve integrates p on the uniform grid 0, dt, ... up to time and
// checks saturable compartments at every sample.
func Solve(p *Problem, method integrators.Method, cfg integrators.Config, time, dt float64) (*Trajectory, error) {
	if err := ValidateHorizon(time, dt); err != nil {
		return nil, err
	}
	if len(p.Compartments) != p.System.StateDim() {
		return nil, fmt.Errorf("%w: %d compartment names for %d states", dynamo.ErrDimensionMismatch, len(p.Compartments), p.System.StateDim())
	}

	type check struct {
		idx int
		sat Saturable
	}
	checks := make([]check, 0, len(p.Saturable))
	for _, s := range p.Saturable {
		idx := -1
		for i, c := range p.Compartments {
			if c == s.Compartment {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: saturable compartment %q", dynamo.ErrKeyNotFound, s.Compartment)
		}
		checks = append(checks, check{idx: idx, sat: s})
	}

	times, err := integrators.SampleGrid(time, dt, cfg)
	if err != nil {
		return nil, err
	}
	sol, err := integrators.Integrate(p.System, method, p.Initial, times, cfg)
	if err != nil {
		return nil, err
	}

	tr := &Trajectory{
		Times:        sol.Times,
		States:       sol.States,
		Compartments: append([]string(nil), p.Compartments...),
		Solver:       sol.Method,
		Stats:        sol.Stats,
	}
	for i, x := range tr.States {
		for _, c := range checks {
			if x[c.idx] > c.sat.Capacity {
				tr.Warnings = append(tr.Warnings, CapacityWarning{
					Step:        i,
					Time:        tr.Times[i],
					Compartment: c.sat.Compartment,
					Activity:    x[c.idx],
					Capacity:    c.sat.Capacity,
				})
			}
		}
	}
	return tr, nil
}

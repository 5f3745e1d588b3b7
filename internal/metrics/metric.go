// Package metrics reduces a trajectory to dosimetry summary values.
// Each Metric observes samples in time order; Evaluate drives a set
// of them over a whole trajectory.
package metrics

import (
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Evaluate resets every metric, feeds it all samples of tr and
// returns the values keyed by metric name.
func Evaluate(tr *pbpk.Trajectory, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i, x := range tr.States {
		for _, m := range ms {
			m.Observe(x, tr.Times[i])
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Default is AUC, peak and time to peak for every compartment, plus
// whole-body retention.
func Default(compartments []string) []Metric {
	ms := make([]Metric, 0, 3*len(compartments)+1)
	for i, c := range compartments {
		ms = append(ms, NewAUC(c, i), NewPeak(c, i), NewTimeToPeak(c, i))
	}
	return append(ms, NewRetention())
}

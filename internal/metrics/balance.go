package metrics

import (
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

// MassBalance is the largest relative drift of total activity from the
// first sample. Without elimination it measures solver error.
type MassBalance struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassBalance() *MassBalance { return &MassBalance{} }

func (m *MassBalance) Name() string { return "mass_balance_drift" }

func (m *MassBalance) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if m.samples == 0 {
		m.initial = total
	}
	m.samples++
	if m.initial != 0 {
		m.maxDrift = math.Max(m.maxDrift, math.Abs(total-m.initial)/math.Abs(m.initial))
	}
}

func (m *MassBalance) Value() float64 { return m.maxDrift }

func (m *MassBalance) Reset() { *m = MassBalance{} }

// Retention is the fraction of the initial total activity still in the
// body at the last observed sample.
type Retention struct {
	initial float64
	last    float64
	samples int
}

func NewRetention() *Retention { return &Retention{} }

func (r *Retention) Name() string { return "retention" }

func (r *Retention) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if r.samples == 0 {
		r.initial = total
	}
	r.last = total
	r.samples++
}

func (r *Retention) Value() float64 {
	if r.initial == 0 {
		return 0
	}
	return r.last / r.initial
}

func (r *Retention) Reset() { *r = Retention{} }

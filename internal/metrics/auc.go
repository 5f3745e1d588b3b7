package metrics

import "github.com/san-kum/pbpksim/internal/dynamo"

// AUC is the trapezoidal time-integrated activity of one compartment,
// in MBq·h.
type AUC struct {
	name  string
	index int
	sum   float64
	lastT float64
	lastV float64
	seen  bool
}

func NewAUC(compartment string, index int) *AUC {
	return &AUC{name: "auc_" + compartment, index: index}
}

func (a *AUC) Name() string { return a.name }

func (a *AUC) Observe(x dynamo.State, t float64) {
	if a.index >= len(x) {
		return
	}
	v := x[a.index]
	if a.seen {
		a.sum += 0.5 * (v + a.lastV) * (t - a.lastT)
	}
	a.lastT, a.lastV, a.seen = t, v, true
}

func (a *AUC) Value() float64 { return a.sum }

func (a *AUC) Reset() {
	a.sum, a.lastT, a.lastV, a.seen = 0, 0, 0, false
}

package metrics

import (
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

type Peak struct {
	name  string
	index int
	max   float64
	at    float64
}

func NewPeak(compartment string, index int) *Peak {
	p := &Peak{name: "peak_" + compartment, index: index}
	p.Reset()
	return p
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index < len(x) && x[p.index] > p.max {
		p.max, p.at = x[p.index], t
	}
}

func (p *Peak) Value() float64 {
	if math.IsInf(p.max, -1) {
		return 0
	}
	return p.max
}

func (p *Peak) Reset() { p.max, p.at = math.Inf(-1), 0 }

// TimeToPeak reports when a compartment first reached its maximum.
type TimeToPeak struct {
	Peak
}

func NewTimeToPeak(compartment string, index int) *TimeToPeak {
	tp := &TimeToPeak{Peak: *NewPeak(compartment, index)}
	tp.name = "tmax_" + compartment
	return tp
}

func (tp *TimeToPeak) Value() float64 { return tp.at }

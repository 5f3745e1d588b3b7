package siebinga

import (
	"fmt"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

// System is the right-hand side of the six-compartment model. Blood is
// the central compartment; salivary uptake saturates at BmaxSalivary
// and every other peripheral exchanges linearly.
//
// The sum of all derivatives is -(K10 + K12*As/BmaxSalivary)*Ab.
type System struct {
	K10          float64
	K12, K21     float64
	K13, K31     float64
	K14, K41     float64
	K15, K51     float64
	K16, K61     float64
	BmaxSalivary float64
}

func NewSystem(p params.Store) (*System, error) {
	g := getter{store: p}
	s := &System{
		K10:          g.get("k10"),
		K12:          g.get("k12"),
		K21:          g.get("k21"),
		K13:          g.get("k13"),
		K31:          g.get("k31"),
		K14:          g.get("k14"),
		K41:          g.get("k41"),
		K15:          g.get("k15"),
		K51:          g.get("k51"),
		K16:          g.get("k16"),
		K61:          g.get("k61"),
		BmaxSalivary: g.get("Bmax_salivary"),
	}
	if g.err != nil {
		return nil, g.err
	}
	if s.BmaxSalivary <= 0 {
		return nil, fmt.Errorf("Bmax_salivary must be positive, got %g", s.BmaxSalivary)
	}
	return s, nil
}

func (s *System) StateDim() int { return len(Topology) }

func (s *System) Derive(x dynamo.State, t float64) dynamo.State {
	ab, as, ak, al, at, ar := x[0], x[1], x[2], x[3], x[4], x[5]

	dSalivary := s.K12*ab*(1-as/s.BmaxSalivary) - s.K21*as
	dKidney := s.K14*ab - s.K41*ak
	dLiver := s.K13*ab - s.K31*al
	dTumor := s.K15*ab - s.K51*at
	dRest := s.K16*ab - s.K61*ar

	// blood efflux is linear in every pair; only the salivary influx
	// saturates, so total activity is not conserved near Bmax_salivary
	inflow := s.K21*as + s.K41*ak + s.K31*al + s.K51*at + s.K61*ar
	dBlood := inflow - (s.K10+s.K12+s.K13+s.K14+s.K15+s.K16)*ab

	return dynamo.State{dBlood, dSalivary, dKidney, dLiver, dTumor, dRest}
}

// Kinetics builds the ODE problem from scaled parameters.
type Kinetics struct{}

var _ pbpk.Kinetics = Kinetics{}

func (Kinetics) Topology() []string { return append([]string(nil), Topology...) }

func (Kinetics) Build(p, c params.Store) (*pbpk.Problem, error) {
	sys, err := NewSystem(p)
	if err != nil {
		return nil, err
	}
	a0, err := p.Get("initial_activity_blood")
	if err != nil {
		return nil, err
	}
	x0 := make(dynamo.State, len(Topology))
	x0[0] = a0

	// only salivary saturates; the other Bmax_* entries stay in the
	// parameter set for documents but no linear exchange reads them
	return &pbpk.Problem{
		System:       sys,
		Initial:      x0,
		Compartments: Kinetics{}.Topology(),
		Saturable:    []pbpk.Saturable{{Compartment: Salivary, Capacity: sys.BmaxSalivary}},
	}, nil
}

// getter keeps the first lookup error.
type getter struct {
	store params.Store
	err   error
}

func (g *getter) get(key string) float64 {
	if g.err != nil {
		return 0
	}
	v, err := g.store.Get(key)
	if err != nil {
		g.err = err
	}
	return v
}

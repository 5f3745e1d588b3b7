// Package pbpk defines the simulation contract shared by every
// compartmental model: a population-default parameter store, a
// compartment store that subject measurements are folded into, and a
// scaled parameter set derived from both that the kinetics consume.
//
// A model starts Unbound. UpdateCompartments binds it to a subject and
// re-derives the scaled parameters from the population defaults, so
// nothing from an earlier subject survives a rebind.
package pbpk

import (
	"fmt"
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/subject"
)

// Model is the two-phase contract: UpdateCompartments, then Simulate.
type Model interface {
	Name() string
	// Params returns the population defaults.
	Params() params.Store
	// ScaledParams returns a snapshot of the parameters Simulate uses.
	ScaledParams() params.Store
	Compartments() params.Store
	UpdateCompartments(s subject.Descriptor) error
	Simulate(time, dt float64) (*Trajectory, error)
	SetSolver(name string) error
	Solver() integrators.Method
	SetConfig(cfg integrators.Config) error
	// Rescale re-derives the scaled parameters after a direct edit of
	// Params or Compartments.
	Rescale() error
}

// Kinetics turns a parameter set and compartment volumes into an ODE
// problem with a fixed compartment topology.
type Kinetics interface {
	Topology() []string
	Build(p, c params.Store) (*Problem, error)
}

// Scaling names the organs whose rate constants follow the subject.
type Scaling struct {
	Table  ReferenceTable
	Organs []ScaledOrgan
	// Reference is the sex used to derive scaled parameters before any
	// subject is bound.
	Reference subject.Sex
}

// Base carries the state every concrete model shares. Concrete models
// embed it and add UpdateCompartments.
type Base struct {
	name         string
	defaults     params.Store
	compartments params.Store
	scaled       params.Store
	kinetics     Kinetics
	scaling      *Scaling
	method       integrators.Method
	config       integrators.Config
	log          logger.Logger
	sex          subject.Sex
	bound        bool
}

// NewBase checks the topology against the compartment store and derives
// the initial scaled parameters. A nil scaling leaves the defaults
// unscaled.
func NewBase(name string, defaults, compartments params.Store, kinetics Kinetics, scaling *Scaling) (*Base, error) {
	for _, c := range kinetics.Topology() {
		if _, err := compartments.Get(c); err != nil {
			return nil, fmt.Errorf("model %s: topology: %w", name, err)
		}
	}
	b := &Base{
		name:         name,
		defaults:     defaults,
		compartments: compartments,
		kinetics:     kinetics,
		scaling:      scaling,
		method:       integrators.DefaultMethod,
		config:       integrators.DefaultConfig(),
		log:          logger.Nop(),
	}
	if scaling != nil {
		b.sex = scaling.Reference
	}
	scaled, err := b.Derive(compartments, b.sex)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	b.scaled = scaled
	return b, nil
}

func (b *Base) Name() string               { return b.name }
func (b *Base) SetName(name string)        { b.name = name }
func (b *Base) Params() params.Store       { return b.defaults }
func (b *Base) Compartments() params.Store { return b.compartments }
func (b *Base) ScaledParams() params.Store { return b.scaled.DeepCopy() }
func (b *Base) Solver() integrators.Method { return b.method }
func (b *Base) Topology() []string         { return b.kinetics.Topology() }

// Bound reports whether a subject has been applied.
func (b *Base) Bound() bool { return b.bound }

// Sex is the sex the current scaled parameters were derived for.
func (b *Base) Sex() subject.Sex { return b.sex }

func (b *Base) Logger() logger.Logger { return b.log }

func (b *Base) SetLogger(l logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	b.log = l
}

// SetSolver selects the integration method. Unknown names fail without
// touching the model.
func (b *Base) SetSolver(name string) error {
	m, err := integrators.ParseMethod(name)
	if err != nil {
		return err
	}
	b.method = m
	return nil
}

func (b *Base) Config() integrators.Config { return b.config }

func (b *Base) SetConfig(cfg integrators.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("integrator config: %w", err)
	}
	b.config = cfg
	return nil
}

// Derive computes scaled parameters for the given volumes and sex from
// the population defaults. It does not modify the model.
func (b *Base) Derive(compartments params.Store, sex subject.Sex) (params.Store, error) {
	if b.scaling == nil {
		return b.defaults.DeepCopy(), nil
	}
	return Scale(b.defaults, compartments, sex, b.scaling.Table, b.scaling.Organs)
}

// Bind merges compartments into the model's store and replaces the
// scaled parameters. Scaling is computed first so a failure leaves the
// model as it was.
func (b *Base) Bind(compartments params.Store, sex subject.Sex) error {
	scaled, err := b.Derive(compartments, sex)
	if err != nil {
		return err
	}
	if err := b.compartments.Update(compartments); err != nil {
		return err
	}
	b.scaled = scaled
	b.sex = sex
	b.bound = true
	b.log.Debug("subject bound", "model", b.name, "sex", sex.String(), "compartments", b.compartments.String())
	return nil
}

// Rescale re-derives the scaled parameters from the current defaults
// and compartments, for use after editing either store directly.
func (b *Base) Rescale() error {
	scaled, err := b.Derive(b.compartments, b.sex)
	if err != nil {
		return err
	}
	b.scaled = scaled
	return nil
}

// Simulate integrates the kinetics over [0, time] sampled every dt.
func (b *Base) Simulate(time, dt float64) (*Trajectory, error) {
	if err := ValidateHorizon(time, dt); err != nil {
		return nil, err
	}
	prob, err := b.kinetics.Build(b.scaled, b.compartments)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", b.name, err)
	}
	if !b.bound && b.scaling != nil {
		b.log.Debug("simulating with reference scaling", "model", b.name, "sex", b.sex.String())
	}

	traj, err := Solve(prob, b.method, b.config, time, dt)
	if err != nil {
		b.log.Error("simulation failed", "model", b.name, "solver", b.method.String(), "error", err)
		return nil, err
	}
	for _, w := range traj.Warnings {
		b.log.Warn("compartment over capacity", "model", b.name, "compartment", w.Compartment,
			"time", w.Time, "activity", w.Activity, "capacity", w.Capacity)
	}
	b.log.Debug("simulation finished", "model", b.name, "solver", b.method.String(),
		"samples", traj.Len(), "steps", traj.Stats.Steps)
	return traj, nil
}

// SimulateWithSubject binds s and simulates in one call.
func SimulateWithSubject(m Model, s subject.Descriptor, time, dt float64) (*Trajectory, error) {
	if err := ValidateHorizon(time, dt); err != nil {
		return nil, err
	}
	if err := m.UpdateCompartments(s); err != nil {
		return nil, err
	}
	return m.Simulate(time, dt)
}

// ValidateHorizon requires 0 < dt <= time, both finite.
func ValidateHorizon(time, dt float64) error {
	switch {
	case math.IsNaN(time) || math.IsInf(time, 0) || math.IsNaN(dt) || math.IsInf(dt, 0):
		return fmt.Errorf("%w: time=%g dt=%g", dynamo.ErrInvalidHorizon, time, dt)
	case time <= 0:
		return fmt.Errorf("%w: time must be positive, got %g", dynamo.ErrInvalidHorizon, time)
	case dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidHorizon, dt)
	case dt > time:
		return fmt.Errorf("%w: dt %g exceeds time %g", dynamo.ErrInvalidHorizon, dt, time)
	}
	return nil
}

// Package experiment turns a run configuration into a bound model and
// executes it.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/pbpksim/internal/config"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/metrics"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/subject"
)

type Result struct {
	Model      string
	Subject    string
	Trajectory *pbpk.Trajectory
	Metrics    map[string]float64
	Scaled     map[string]float64
	Elapsed    time.Duration
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	log      logger.Logger
	doc      *sbml.Document
	model    pbpk.Model
	subject  subject.Descriptor
}

func New(cfg *config.Config, registry *Registry, log logger.Logger) *Experiment {
	if log == nil {
		log = logger.Nop()
	}
	return &Experiment{cfg: cfg, registry: registry, log: log}
}

// Setup builds the model, applies overrides and binds the configured
// subject if there is one.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if e.cfg.Document != "" {
		doc, err := sbml.ReadFile(e.cfg.Document)
		if err != nil {
			return fmt.Errorf("document %s: %w", e.cfg.Document, err)
		}
		e.doc = doc
	}
	m, err := e.build()
	if err != nil {
		return err
	}

	s, err := e.cfg.LoadSubject()
	if err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if s != nil {
		if err := m.UpdateCompartments(s); err != nil {
			return fmt.Errorf("subject: %w", err)
		}
		e.subject = s
	}
	e.model = m
	return nil
}

// build makes an independent model with overrides applied. Each call
// gets its own copy of the document.
func (e *Experiment) build() (pbpk.Model, error) {
	opts := BuildOptions{
		Name:       e.cfg.Name,
		Solver:     e.cfg.Solver,
		Integrator: e.cfg.Integrator,
		Logger:     e.log,
	}
	if e.doc != nil {
		opts.Document = e.doc.Clone()
	}
	m, err := e.registry.GetModel(e.cfg.Model, opts)
	if err != nil {
		return nil, err
	}
	if len(e.cfg.Params) > 0 {
		if err := m.Params().Update(params.FromMap(e.cfg.Params)); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
	}
	if len(e.cfg.Compartments) > 0 {
		if err := m.Compartments().Update(params.FromMap(e.cfg.Compartments)); err != nil {
			return nil, fmt.Errorf("compartments: %w", err)
		}
	}
	if len(e.cfg.Params) > 0 || len(e.cfg.Compartments) > 0 {
		if err := m.Rescale(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (e *Experiment) Model() pbpk.Model { return e.model }

func (e *Experiment) Subject() subject.Descriptor { return e.subject }

// Run simulates on a worker goroutine. Cancelling ctx returns early
// and the abandoned result is discarded.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	type outcome struct {
		tr  *pbpk.Trajectory
		err error
	}
	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		tr, err := e.model.Simulate(e.cfg.Time, e.cfg.Dt)
		done <- outcome{tr, err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return nil, out.err
	}

	res := e.result(e.model, e.subject, out.tr)
	res.Elapsed = time.Since(start)
	e.log.Info("run finished", "model", res.Model, "subject", res.Subject, "solver", out.tr.Solver.String(),
		"samples", out.tr.Len(), "warnings", len(out.tr.Warnings), "elapsed", res.Elapsed)
	return res, nil
}

// RunCohort simulates each subject on a fresh model built from the same
// configuration, at most limit concurrently.
func (e *Experiment) RunCohort(ctx context.Context, subjects []subject.Descriptor, limit int) ([]*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.Document != "" && e.doc == nil {
		doc, err := sbml.ReadFile(e.cfg.Document)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", e.cfg.Document, err)
		}
		e.doc = doc
	}

	trs, err := pbpk.RunCohort(ctx, e.build, subjects, e.cfg.Time, e.cfg.Dt, limit)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, len(trs))
	for i, tr := range trs {
		results[i] = e.result(nil, subjects[i], tr)
	}
	return results, nil
}

func (e *Experiment) result(m pbpk.Model, s subject.Descriptor, tr *pbpk.Trajectory) *Result {
	res := &Result{
		Model:      e.cfg.Model,
		Subject:    subjectName(s),
		Trajectory: tr,
		Metrics:    metrics.Evaluate(tr, metrics.Default(tr.Compartments)...),
	}
	if m != nil {
		res.Scaled = params.Values(m.ScaledParams())
	}
	return res
}

func subjectName(s subject.Descriptor) string {
	if p, ok := s.(*subject.Phantom); ok && p.Name != "" {
		return p.Name
	}
	if s == nil {
		return "reference"
	}
	return s.Sex().String()
}

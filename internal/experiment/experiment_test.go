package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/pbpksim/internal/config"
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/siebinga"
	"github.com/san-kum/pbpksim/internal/subject"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := r.ListModels(); len(got) != 1 || got[0] != "siebinga" {
		t.Errorf("models = %v", got)
	}
	if len(r.ListSolvers()) != 15 {
		t.Errorf("solvers = %v", r.ListSolvers())
	}
	m, err := r.GetModel("siebinga", BuildOptions{Solver: "AB4", Integrator: integrators.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if m.Solver() != integrators.AB4 {
		t.Errorf("solver = %s", m.Solver())
	}
	if _, err := r.GetModel("pendulum", BuildOptions{}); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestRun_Preset(t *testing.T) {
	cfg := config.GetPreset("siebinga", "xcat-female")
	e := New(cfg, NewRegistry(), nil)
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Subject != "xcat-female" || res.Trajectory.Len() != 49 {
		t.Errorf("subject %q samples %d", res.Subject, res.Trajectory.Len())
	}
	if res.Metrics["peak_blood"] != 3000 {
		t.Errorf("peak_blood = %g", res.Metrics["peak_blood"])
	}
	if res.Metrics["retention"] <= 0 || res.Metrics["retention"] >= 1 {
		t.Errorf("retention = %g", res.Metrics["retention"])
	}
	if _, ok := res.Scaled["k13"]; !ok {
		t.Error("scaled params missing")
	}
	if !e.Model().(*siebinga.Model).Bound() {
		t.Error("model not bound")
	}
}

func TestRun_NotSetup(t *testing.T) {
	e := New(config.DefaultConfig(), NewRegistry(), nil)
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRun_Cancelled(t *testing.T) {
	e := New(config.DefaultConfig(), NewRegistry(), nil)
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestSetup_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Params = map[string]float64{"k10": 0}
	cfg.Compartments = map[string]float64{"liver": 1.5}
	e := New(cfg, NewRegistry(), nil)
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	m := e.Model()
	if params.MustGet(m.ScaledParams(), "k10") != 0 {
		t.Error("k10 override not applied to scaled params")
	}
	want := 0.0086 * (0.9953 / 1.5)
	if got := params.MustGet(m.ScaledParams(), "k13"); got != want {
		t.Errorf("k13 = %g, want %g", got, want)
	}
}

func TestSetup_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model = "lorenz"
	if err := New(cfg, NewRegistry(), nil).Setup(); err == nil {
		t.Error("expected unknown model error")
	}

	cfg = config.DefaultConfig()
	cfg.Subject = subject.NewPhantom("p", subject.Female, map[string]float64{"liver": 1})
	if err := New(cfg, NewRegistry(), nil).Setup(); !errors.Is(err, dynamo.ErrScalingUndefined) {
		t.Errorf("expected ErrScalingUndefined, got %v", err)
	}
}

func TestSetup_Document(t *testing.T) {
	doc, err := siebinga.DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.xml")
	if err := sbml.WriteFile(path, doc); err != nil {
		t.Fatal(err)
	}

	cfg := config.GetPreset("siebinga", "reference-male")
	cfg.Document = path
	cfg.Compartments = map[string]float64{"brain": 1.3}
	if err := New(cfg, NewRegistry(), nil).Setup(); !errors.Is(err, dynamo.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound for undeclared compartment, got %v", err)
	}

	cfg.Compartments = nil
	e := New(cfg, NewRegistry(), nil)
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	if e.Model().(*siebinga.Model).Document() == nil {
		t.Error("model not document-backed")
	}
}

func TestRunCohort(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Time, cfg.Dt = 6, 1
	subjects := []subject.Descriptor{
		config.GetPreset("siebinga", "reference-female").Subject,
		config.GetPreset("siebinga", "reference-male").Subject,
		config.GetPreset("siebinga", "xcat-male").Subject,
	}
	results, err := New(cfg, NewRegistry(), nil).RunCohort(context.Background(), subjects, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[1].Subject != "reference-male" {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if r.Trajectory.Len() != 7 {
			t.Errorf("%s: %d samples", r.Subject, r.Trajectory.Len())
		}
	}
}

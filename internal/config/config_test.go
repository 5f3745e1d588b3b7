package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/subject"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model != "siebinga" || cfg.Solver != "BD2" {
		t.Errorf("model %q solver %q", cfg.Model, cfg.Solver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.HasSubject() {
		t.Error("default config has a subject")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"bad horizon", func(c *Config) { c.Dt = 100 }, dynamo.ErrInvalidHorizon},
		{"bad solver", func(c *Config) { c.Solver = "Euler" }, dynamo.ErrUnsupportedSolver},
		{"no model", func(c *Config) { c.Model = "" }, nil},
		{"bad integrator", func(c *Config) { c.Integrator.MaxStep = -1 }, nil},
		{"two subjects", func(c *Config) {
			c.SubjectFile = "s.yaml"
			c.XCAT = &XCATSource{Path: "x.log"}
		}, nil},
		{"xcat without path", func(c *Config) { c.XCAT = &XCATSource{} }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := `model: siebinga
solver: Cash-Karp
time: 12
dt: 0.25
params:
  k10: 0.2
subject_file: patient.yaml
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver != "Cash-Karp" || cfg.Time != 12 || cfg.Dt != 0.25 || cfg.Params["k10"] != 0.2 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Integrator.MaxStep != 0.05 {
		t.Errorf("integrator defaults lost: %+v", cfg.Integrator)
	}
	if cfg.SubjectFile != filepath.Join(dir, "patient.yaml") {
		t.Errorf("subject_file not resolved: %s", cfg.SubjectFile)
	}

	out := filepath.Join(dir, "saved.yaml")
	if err := Save(out, cfg); err != nil {
		t.Fatal(err)
	}
	back, err := Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if back.Solver != cfg.Solver || back.Params["k10"] != 0.2 || back.SubjectFile != cfg.SubjectFile {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("time: -1\n"), 0644)
	if _, err := Load(bad); !errors.Is(err, dynamo.ErrInvalidHorizon) {
		t.Errorf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestLoadSubject(t *testing.T) {
	cfg := GetPreset("siebinga", "xcat-male")
	s, err := cfg.LoadSubject()
	if err != nil {
		t.Fatal(err)
	}
	if s.Sex() != subject.Male {
		t.Errorf("sex = %v", s.Sex())
	}

	none := DefaultConfig()
	if s, err := none.LoadSubject(); s != nil || err != nil {
		t.Errorf("expected no subject, got %v, %v", s, err)
	}

	dir := t.TempDir()
	log := filepath.Join(dir, "phantom_log")
	_ = os.WriteFile(log, []byte("ORGAN VOLUMES:\nliver = 1500 ml\n"+strings.Repeat("-", 40)+"\n"), 0644)
	xc := DefaultConfig()
	xc.XCAT = &XCATSource{Path: log, Sex: subject.Female, Tumor: 0.01}
	s, err = xc.LoadSubject()
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Volume("liver"); !ok || v != 1.5 {
		t.Errorf("liver = %v, %v", v, ok)
	}
	if v, ok := s.Volume("tumor"); !ok || v != 0.01 {
		t.Errorf("tumor = %v, %v", v, ok)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("siebinga", "reference-female")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
	cfg.Subject.OrganVolumes["liver"] = 5
	if Presets["siebinga"]["reference-female"].Subject.OrganVolumes["liver"] != 0.9953 {
		t.Error("GetPreset returned shared subject")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("siebinga", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "xcat-male") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("siebinga")
	if len(presets) != 5 || presets[0] != "first-hour" {
		t.Errorf("presets = %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestAllPresetsValid(t *testing.T) {
	for model, ps := range Presets {
		for name, cfg := range ps {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
		}
	}
}

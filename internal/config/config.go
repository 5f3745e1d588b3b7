// Package config loads run descriptions from YAML. A run names a
// model, its solver and horizon, optional parameter and compartment
// overrides, and the subject to scale to.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/subject"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel = "siebinga"
	DefaultTime  = 24.0
	DefaultDt    = 0.5
)

type Config struct {
	Model  string `yaml:"model"`
	Name   string `yaml:"name,omitempty"`
	Solver string `yaml:"solver"`
	// Time is the horizon in hours, Dt the output sampling interval.
	Time       float64            `yaml:"time"`
	Dt         float64            `yaml:"dt"`
	Integrator integrators.Config `yaml:"integrator"`
	// Params and Compartments override population defaults by key.
	Params       map[string]float64 `yaml:"params,omitempty"`
	Compartments map[string]float64 `yaml:"compartments,omitempty"`
	// Document is an SBML file providing the stores instead of the
	// built-in defaults.
	Document string `yaml:"document,omitempty"`
	// At most one subject source may be set.
	Subject     *subject.Phantom `yaml:"subject,omitempty"`
	SubjectFile string           `yaml:"subject_file,omitempty"`
	XCAT        *XCATSource      `yaml:"xcat,omitempty"`
}

// XCATSource points at an XCAT phantom log. The log carries no sex or
// tumor, so both are given here.
type XCATSource struct {
	Path  string      `yaml:"path"`
	Sex   subject.Sex `yaml:"sex"`
	Tumor float64     `yaml:"tumor,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Solver:     integrators.DefaultMethod.String(),
		Time:       DefaultTime,
		Dt:         DefaultDt,
		Integrator: integrators.DefaultConfig(),
	}
}

// Load reads path over DefaultConfig. Relative file references in the
// config resolve against the config's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) resolvePaths(dir string) {
	rel := func(p string) string {
		if p == "" || p == "-" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Document = rel(c.Document)
	c.SubjectFile = rel(c.SubjectFile)
	if c.XCAT != nil {
		c.XCAT.Path = rel(c.XCAT.Path)
	}
}

// Validate checks everything that can be checked without building the
// model.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if err := pbpk.ValidateHorizon(c.Time, c.Dt); err != nil {
		return err
	}
	if _, err := integrators.ParseMethod(c.Solver); err != nil {
		return err
	}
	if err := c.Integrator.Validate(); err != nil {
		return fmt.Errorf("integrator: %w", err)
	}

	sources := 0
	if c.Subject != nil {
		sources++
		if err := c.Subject.Validate(); err != nil {
			return err
		}
	}
	if c.SubjectFile != "" {
		sources++
	}
	if c.XCAT != nil {
		sources++
		if c.XCAT.Path == "" {
			return fmt.Errorf("xcat: path is required")
		}
	}
	if sources > 1 {
		return fmt.Errorf("subject, subject_file and xcat are mutually exclusive")
	}
	return nil
}

// HasSubject reports whether any subject source is configured.
func (c *Config) HasSubject() bool {
	return c.Subject != nil || c.SubjectFile != "" || c.XCAT != nil
}

// LoadSubject returns the configured subject, or nil when there is none.
func (c *Config) LoadSubject() (subject.Descriptor, error) {
	switch {
	case c.Subject != nil:
		return c.Subject, nil
	case c.SubjectFile != "":
		return subject.LoadFile(c.SubjectFile)
	case c.XCAT != nil:
		return subject.ReadLogFile(c.XCAT.Path, c.XCAT.Sex, c.XCAT.Tumor, filepath.Base(c.XCAT.Path))
	}
	return nil, nil
}

// Package automation drives many runs from one description: scripted
// scenarios, one-parameter sweeps and Monte Carlo sampling of rate
// constants.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/san-kum/pbpksim/internal/config"
	"github.com/san-kum/pbpksim/internal/experiment"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/storage"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. It starts from a preset, a config file or
// the defaults, and the remaining fields override that base.
type ScenarioStep struct {
	Model  string             `yaml:"model,omitempty"`
	Preset string             `yaml:"preset,omitempty"`
	Config string             `yaml:"config,omitempty"`
	Solver string             `yaml:"solver,omitempty"`
	Time   float64            `yaml:"time,omitempty"`
	Dt     float64            `yaml:"dt,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty"`
	// SaveAs writes the trajectory as CSV.
	SaveAs string `yaml:"save_as,omitempty"`
}

// LoadScenario loads a scenario from a YAML file. Config and SaveAs
// paths resolve against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		s := &scenario.Steps[i]
		if s.Preset != "" && s.Config != "" {
			return nil, fmt.Errorf("step %d: preset and config are mutually exclusive", i+1)
		}
		if s.Config != "" && !filepath.IsAbs(s.Config) {
			s.Config = filepath.Join(dir, s.Config)
		}
		if s.SaveAs != "" && !filepath.IsAbs(s.SaveAs) {
			s.SaveAs = filepath.Join(dir, s.SaveAs)
		}
	}
	return &scenario, nil
}

// Resolve builds the run configuration of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	model := s.Model
	if model == "" {
		model = config.DefaultModel
	}
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "":
		cfg = config.GetPreset(model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets(model))
		}
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	cfg.Model = model
	if s.Solver != "" {
		cfg.Solver = s.Solver
	}
	if s.Time != 0 {
		cfg.Time = s.Time
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if len(s.Params) > 0 {
		cfg = withParams(cfg, s.Params)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log logger.Logger) ([]*experiment.Result, error) {
	if log == nil {
		log = logger.Nop()
	}
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps))

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		result, err := run(ctx, cfg, registry, log)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.SaveAs != "" {
			if err := saveCSV(step.SaveAs, result); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		results = append(results, result)
	}

	return results, nil
}

func run(ctx context.Context, cfg *config.Config, registry *experiment.Registry, log logger.Logger) (*experiment.Result, error) {
	exp := experiment.New(cfg, registry, log)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

func saveCSV(path string, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(f, result.Trajectory); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withParams copies cfg with extra parameter overrides on top of its
// own.
func withParams(cfg *config.Config, extra map[string]float64) *config.Config {
	c := *cfg
	c.Params = make(map[string]float64, len(cfg.Params)+len(extra))
	for k, v := range cfg.Params {
		c.Params[k] = v
	}
	for k, v := range extra {
		c.Params[k] = v
	}
	return &c
}

// ParameterSweep runs Base once per evenly spaced value of Param in
// [Min, Max].
type ParameterSweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Steps int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	Value    float64
	Metrics  map[string]float64
	Warnings int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log logger.Logger) ([]SweepResult, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}
	if !(sweep.Max > sweep.Min) {
		return nil, fmt.Errorf("sweep range [%g, %g] is empty", sweep.Min, sweep.Max)
	}
	if log == nil {
		log = logger.Nop()
	}

	results := make([]SweepResult, 0, sweep.Steps)
	step := (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	for i := 0; i < sweep.Steps; i++ {
		v := sweep.Min + float64(i)*step
		cfg := withParams(sweep.Base, map[string]float64{sweep.Param: v})
		result, err := run(ctx, cfg, registry, log)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		results = append(results, SweepResult{
			Value:    v,
			Metrics:  result.Metrics,
			Warnings: len(result.Trajectory.Warnings),
		})
		log.Debug("sweep", "param", sweep.Param, "value", v, "step", i+1, "of", sweep.Steps)
	}
	return results, nil
}

// MonteCarloConfig samples each named parameter from a log-normal
// centred on its value in Base, with coefficient of variation CV.
type MonteCarloConfig struct {
	Base   *config.Config
	Params []string
	CV     float64
	Trials int
	Seed   uint64
}

// MonteCarloResult holds one trial's sampled parameters and metrics.
type MonteCarloResult struct {
	Trial    int
	Params   map[string]float64
	Metrics  map[string]float64
	Warnings int
}

// RunMonteCarlo executes Trials runs with independently sampled
// parameters. A fixed Seed reproduces the samples.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log logger.Logger) ([]MonteCarloResult, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least 1 trial, got %d", cfg.Trials)
	}
	if !(cfg.CV > 0) || math.IsInf(cfg.CV, 0) {
		return nil, fmt.Errorf("coefficient of variation must be positive, got %g", cfg.CV)
	}
	if len(cfg.Params) == 0 {
		return nil, errors.New("monte carlo needs at least one parameter")
	}
	if log == nil {
		log = logger.Nop()
	}

	centre, err := baseValues(cfg.Base, registry, cfg.Params, log)
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	sigma := math.Sqrt(math.Log1p(cfg.CV * cfg.CV))
	dists := make([]distuv.LogNormal, len(cfg.Params))
	for i, p := range cfg.Params {
		dists[i] = distuv.LogNormal{Mu: math.Log(centre[p]), Sigma: sigma, Src: src}
	}

	results := make([]MonteCarloResult, 0, cfg.Trials)
	for trial := 0; trial < cfg.Trials; trial++ {
		sampled := make(map[string]float64, len(cfg.Params))
		for i, p := range cfg.Params {
			sampled[p] = dists[i].Rand()
		}
		result, err := run(ctx, withParams(cfg.Base, sampled), registry, log)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		results = append(results, MonteCarloResult{
			Trial:    trial,
			Params:   sampled,
			Metrics:  result.Metrics,
			Warnings: len(result.Trajectory.Warnings),
		})
		if (trial+1)%10 == 0 {
			log.Info("monte carlo", "done", trial+1, "of", cfg.Trials)
		}
	}
	return results, nil
}

// baseValues reads the centre of each sampled parameter from the model
// Base builds, overrides included.
func baseValues(base *config.Config, registry *experiment.Registry, names []string, log logger.Logger) (map[string]float64, error) {
	exp := experiment.New(base, registry, log)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	p := exp.Model().Params()
	out := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := p.Get(name)
		if err != nil {
			return nil, err
		}
		if !(v > 0) {
			return nil, fmt.Errorf("parameter %s = %g cannot be sampled log-normally", name, v)
		}
		out[name] = v
	}
	return out, nil
}

// MonteCarloStats is the mean and sample standard deviation of one
// metric across trials.
func MonteCarloStats(results []MonteCarloResult, metric string) (mean, std float64, err error) {
	xs := make([]float64, 0, len(results))
	for _, r := range results {
		v, ok := r.Metrics[metric]
		if !ok {
			return 0, 0, fmt.Errorf("trial %d has no metric %q", r.Trial, metric)
		}
		xs = append(xs, v)
	}
	if len(xs) == 0 {
		return 0, 0, errors.New("no trials")
	}
	if len(xs) == 1 {
		return xs[0], 0, nil
	}
	mean, std = stat.MeanStdDev(xs, nil)
	return mean, std, nil
}

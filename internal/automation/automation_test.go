package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pbpksim/internal/config"
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortRun(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetPreset("siebinga", "reference-female")
	require.NotNil(t, cfg)
	cfg.Time = 4
	cfg.Dt = 1
	return cfg
}

func TestScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: pair
description: reference subjects, then no elimination
steps:
  - preset: reference-female
    time: 2
    dt: 1
    save_as: female.csv
  - preset: reference-male
    time: 2
    dt: 1
    solver: Runge-Kutta
    params:
      k10: 0
      Bmax_salivary: 1e12
`), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, filepath.Join(dir, "female.csv"), sc.Steps[0].SaveAs)

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "reference-female", results[0].Subject)
	assert.Equal(t, 3, results[1].Trajectory.Len())
	assert.InDelta(t, 1, results[1].Metrics["retention"], 1e-6)

	data, err := os.ReadFile(filepath.Join(dir, "female.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "time [hr]")
}

func TestScenarioErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	_, err := LoadScenario(write("empty.yaml", "name: empty\n"))
	assert.Error(t, err)

	_, err = LoadScenario(write("both.yaml", "steps:\n  - preset: reference-male\n    config: run.yaml\n"))
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = ScenarioStep{Preset: "nope"}.Resolve()
	assert.Error(t, err)

	_, err = ScenarioStep{Solver: "Euler"}.Resolve()
	assert.Error(t, err)

	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{{Time: 1, Dt: 0.5}, {Time: 1, Dt: 2}}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	assert.Error(t, err)
	assert.Len(t, results, 1, "steps before the failure are kept")
}

func TestRunSweep(t *testing.T) {
	// an effectively unbounded salivary capacity makes k10 the only sink
	base := shortRun(t)
	base.Params = map[string]float64{"Bmax_salivary": 1e12}
	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base:  base,
		Param: "k10",
		Min:   0,
		Max:   0.4,
		Steps: 3,
	}, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 0.2, results[1].Value, 1e-12)
	assert.InDelta(t, 1, results[0].Metrics["retention"], 1e-6)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i].Metrics["retention"], results[i-1].Metrics["retention"])
	}
}

func TestRunSweepErrors(t *testing.T) {
	reg := experiment.NewRegistry()
	_, err := RunSweep(context.Background(), &ParameterSweep{Base: shortRun(t), Param: "k10", Min: 0, Max: 1, Steps: 1}, reg, nil)
	assert.Error(t, err)
	_, err = RunSweep(context.Background(), &ParameterSweep{Base: shortRun(t), Param: "k10", Min: 1, Max: 1, Steps: 3}, reg, nil)
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Base:   shortRun(t),
		Params: []string{"k10", "k14"},
		CV:     0.3,
		Trials: 6,
		Seed:   42,
	}
	reg := experiment.NewRegistry()
	first, err := RunMonteCarlo(context.Background(), mc, reg, nil)
	require.NoError(t, err)
	require.Len(t, first, 6)

	again, err := RunMonteCarlo(context.Background(), mc, reg, nil)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].Params, again[i].Params, "trial %d not reproducible", i)
		assert.Greater(t, first[i].Params["k10"], 0.0)
	}
	assert.NotEqual(t, first[0].Params["k10"], first[1].Params["k10"])

	mean, std, err := MonteCarloStats(first, "retention")
	require.NoError(t, err)
	assert.True(t, mean > 0 && mean < 1, "mean retention %g", mean)
	assert.Greater(t, std, 0.0)

	_, _, err = MonteCarloStats(first, "nope")
	assert.Error(t, err)
	_, _, err = MonteCarloStats(nil, "retention")
	assert.Error(t, err)

	m, s, err := MonteCarloStats(first[:1], "retention")
	require.NoError(t, err)
	assert.Equal(t, first[0].Metrics["retention"], m)
	assert.Zero(t, s)
}

func TestRunMonteCarloErrors(t *testing.T) {
	reg := experiment.NewRegistry()
	base := shortRun(t)
	for name, mc := range map[string]*MonteCarloConfig{
		"no trials": {Base: base, Params: []string{"k10"}, CV: 0.1},
		"zero cv":   {Base: base, Params: []string{"k10"}, Trials: 1},
		"nan cv":    {Base: base, Params: []string{"k10"}, CV: math.NaN(), Trials: 1},
		"no params": {Base: base, CV: 0.1, Trials: 1},
	} {
		_, err := RunMonteCarlo(context.Background(), mc, reg, nil)
		assert.Error(t, err, name)
	}

	_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Base: base, Params: []string{"k99"}, CV: 0.1, Trials: 1}, reg, nil)
	assert.True(t, errors.Is(err, dynamo.ErrKeyNotFound), "got %v", err)
}

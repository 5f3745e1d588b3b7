package integrators

import "fmt"

// Config bounds the internal stepping of a single integration.
type Config struct {
	// MaxStep caps the internal step of fixed-step methods; each output
	// interval is split into the fewest uniform substeps not exceeding it.
	MaxStep float64 `yaml:"max_step"`
	// InitialStep seeds adaptive methods. Zero picks a fraction of the first interval.
	InitialStep float64 `yaml:"initial_step"`
	// MinStep is the smallest step an adaptive method may shrink to.
	MinStep float64 `yaml:"min_step"`
	RelTol  float64 `yaml:"rel_tol"`
	AbsTol  float64 `yaml:"abs_tol"`
	// MaxSteps is the internal step budget across the whole run.
	MaxSteps int `yaml:"max_steps"`
	// NewtonTol and MaxNewtonIter control implicit stage solves.
	NewtonTol     float64 `yaml:"newton_tol"`
	MaxNewtonIter int     `yaml:"max_newton_iter"`
}

func DefaultConfig() Config {
	return Config{
		MaxStep:       0.05,
		MinStep:       1e-10,
		RelTol:        1e-6,
		AbsTol:        1e-9,
		MaxSteps:      1_000_000,
		NewtonTol:     1e-10,
		MaxNewtonIter: 20,
	}
}

func (c Config) Validate() error {
	if c.MaxStep <= 0 {
		return fmt.Errorf("max_step must be positive, got %g", c.MaxStep)
	}
	if c.MinStep <= 0 || c.MinStep > c.MaxStep {
		return fmt.Errorf("min_step must be in (0, max_step], got %g", c.MinStep)
	}
	if c.InitialStep < 0 {
		return fmt.Errorf("initial_step must not be negative, got %g", c.InitialStep)
	}
	if c.RelTol <= 0 || c.AbsTol <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.NewtonTol <= 0 || c.MaxNewtonIter <= 0 {
		return fmt.Errorf("newton_tol and max_newton_iter must be positive")
	}
	return nil
}

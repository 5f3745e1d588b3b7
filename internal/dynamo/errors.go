package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model configuration and simulation.
var (
	// ErrInvalidHorizon indicates a non-positive time or step, or a step larger than the horizon.
	ErrInvalidHorizon = errors.New("dynamo: invalid simulation horizon")

	// ErrKeyNotFound indicates a lookup or write of an undeclared key.
	ErrKeyNotFound = errors.New("dynamo: key not found")

	// ErrScalingUndefined indicates missing or zero reference data for a scaling computation.
	ErrScalingUndefined = errors.New("dynamo: scaling undefined")

	// ErrUnsupportedSex indicates a subject sex outside the recognized set.
	ErrUnsupportedSex = errors.New("dynamo: unsupported sex")

	// ErrUnsupportedSolver indicates a solver name outside the enumerated set.
	ErrUnsupportedSolver = errors.New("dynamo: unsupported solver")

	// ErrOutOfCapacity indicates a saturable compartment holding more than its capacity.
	ErrOutOfCapacity = errors.New("dynamo: compartment activity exceeds capacity")

	// ErrSolverDivergence indicates the integration failed to converge or ran out of budget.
	ErrSolverDivergence = errors.New("dynamo: solver diverged")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepBudget indicates the solver exceeded its maximum number of internal steps.
	ErrStepBudget = errors.New("dynamo: internal step budget exhausted")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Diverged builds a SimulationError classified as ErrSolverDivergence
// with cause as the specific reason.
func Diverged(step int, t float64, x State, cause error) *SimulationError {
	return &SimulationError{
		Step:    step,
		Time:    t,
		State:   x.Clone(),
		Wrapped: fmt.Errorf("%w: %w", ErrSolverDivergence, cause),
	}
}

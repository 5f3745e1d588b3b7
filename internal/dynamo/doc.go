// Package dynamo provides core primitives for compartmental kinetics.
//
// The package defines the fundamental types shared by the solver, the
// model layer and the tooling around them:
//
//   - [State]: vector of per-compartment activities
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [SimulationError]: numerical failure with step context
//
// Domain failures are reported through the sentinel errors in this
// package so callers can classify them with errors.Is:
//
//	traj, err := model.Simulate(48, 0.5)
//	if errors.Is(err, dynamo.ErrSolverDivergence) {
//	    // retry with a smaller step or another solver
//	}
//
// # Thread Safety
//
// States are plain slices. Nothing in this package holds global mutable
// state, so independent systems may be integrated concurrently.
package dynamo

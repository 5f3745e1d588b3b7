// Package integrators implements the fixed set of numerical methods a
// kinetics model can be solved with:
//
//   - "Runge-Kutta": classic fourth-order Runge-Kutta
//   - "AB1".."AB4": explicit Adams-Bashforth
//   - "AM1".."AM4": implicit Adams-Moulton
//   - "BD1".."BD4": backward differentiation (BDF), the stiff default
//   - "Runge-Kutta-Fehlberg", "Cash-Karp": embedded adaptive pairs
//
// Output sampling and internal step control are independent: [Integrate]
// reports the state at every requested output time while fixed-step
// methods subdivide each output interval and adaptive methods choose
// their own steps with error control.
package integrators

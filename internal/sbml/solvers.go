package sbml

import "github.com/san-kum/pbpksim/internal/integrators"

// ValidSolvers lists the solver names a document-backed model accepts.
func ValidSolvers() []string {
	methods := integrators.Methods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}

// CheckSolver resolves a solver name, failing with
// dynamo.ErrUnsupportedSolver for anything outside ValidSolvers.
func CheckSolver(name string) (integrators.Method, error) {
	return integrators.ParseMethod(name)
}

package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/siebinga"
)

// BuildOptions are the settings a model constructor receives. Document
// is nil for map-backed models.
type BuildOptions struct {
	Name       string
	Solver     string
	Integrator integrators.Config
	Document   *sbml.Document
	Logger     logger.Logger
}

type Builder func(BuildOptions) (pbpk.Model, error)

type Registry struct {
	models map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Builder)}
	r.Register("siebinga", buildSiebinga)
	return r
}

func buildSiebinga(o BuildOptions) (pbpk.Model, error) {
	opts := []siebinga.Option{
		siebinga.WithSolver(o.Solver),
		siebinga.WithConfig(o.Integrator),
	}
	if o.Name != "" {
		opts = append(opts, siebinga.WithName(o.Name))
	}
	if o.Logger != nil {
		opts = append(opts, siebinga.WithLogger(o.Logger))
	}
	if o.Document != nil {
		return siebinga.FromDocument(o.Document, opts...)
	}
	return siebinga.New(opts...)
}

func (r *Registry) Register(name string, b Builder) { r.models[name] = b }

func (r *Registry) GetModel(name string, o BuildOptions) (pbpk.Model, error) {
	b, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return b(o)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListSolvers returns every solver name a model accepts.
func (r *Registry) ListSolvers() []string { return sbml.ValidSolvers() }

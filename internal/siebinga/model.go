// Package siebinga implements the six-compartment PSMA radioligand
// model of Siebinga et al.: blood as the central compartment,
// saturable salivary gland uptake and linear exchange with kidney,
// liver, tumor and the rest of the body.
//
// The same model runs on a plain parameter map (New) or on an SBML
// document (FromDocument).
package siebinga

import (
	"fmt"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/logger"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/sbml"
	"github.com/san-kum/pbpksim/internal/subject"
)

const DefaultName = "SiebingaModel"

// region maps subject regions onto a compartment. Volumes of all parts
// are summed.
type region struct {
	compartment string
	parts       []string
	optional    bool
}

var regions = []region{
	{compartment: Liver, parts: []string{"liver"}},
	{compartment: Kidney, parts: []string{"rightkidney", "leftkidney"}},
	{compartment: Salivary, parts: []string{"salivaryglands"}},
	{compartment: Tumor, parts: []string{"tumor"}, optional: true},
	{compartment: Blood, parts: []string{"blood"}, optional: true},
}

// Regions lists the subject regions the model reads, required first.
func Regions() (required, optional []string) {
	for _, r := range regions {
		if r.optional {
			optional = append(optional, r.parts...)
		} else {
			required = append(required, r.parts...)
		}
	}
	return required, optional
}

type Model struct {
	*pbpk.Base
	doc *sbml.Document
}

var _ pbpk.Model = (*Model)(nil)

type options struct {
	name   string
	solver string
	config *integrators.Config
	log    logger.Logger
}

type Option func(*options)

func WithName(name string) Option { return func(o *options) { o.name = name } }

func WithSolver(name string) Option { return func(o *options) { o.solver = name } }

func WithConfig(cfg integrators.Config) Option { return func(o *options) { o.config = &cfg } }

func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// New builds a map-backed model with population defaults.
func New(opts ...Option) (*Model, error) {
	return build(DefaultParams(), DefaultCompartments(), nil, opts)
}

// FromDocument builds a model whose stores are views over doc. The
// document must declare every parameter and compartment the kinetics
// read.
func FromDocument(doc *sbml.Document, opts ...Option) (*Model, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return build(sbml.ParameterStore(doc), sbml.CompartmentStore(doc), doc, opts)
}

// DefaultDocument is the population-default model as an SBML document.
func DefaultDocument() (*sbml.Document, error) {
	return sbml.FromStores(DefaultName, DefaultParams(), DefaultCompartments())
}

func build(p, c params.Store, doc *sbml.Document, opts []Option) (*Model, error) {
	o := options{name: DefaultName}
	for _, opt := range opts {
		opt(&o)
	}

	// a document-backed model settles its solver before touching the
	// document's parameters
	if doc != nil && o.solver != "" {
		if _, err := sbml.CheckSolver(o.solver); err != nil {
			return nil, fmt.Errorf("siebinga: document %s: %w", doc.Model.ID, err)
		}
	}
	if _, err := NewSystem(p); err != nil {
		return nil, fmt.Errorf("siebinga: %w", err)
	}
	base, err := pbpk.NewBase(o.name, p, c, Kinetics{}, Scaling())
	if err != nil {
		return nil, err
	}
	if o.solver != "" {
		if err := base.SetSolver(o.solver); err != nil {
			return nil, err
		}
	}
	if o.config != nil {
		if err := base.SetConfig(*o.config); err != nil {
			return nil, err
		}
	}
	if o.log != nil {
		base.SetLogger(o.log.With("model", o.name))
	}
	return &Model{Base: base, doc: doc}, nil
}

// Document returns the backing document, or nil for a map-backed model.
func (m *Model) Document() *sbml.Document { return m.doc }

// UpdateCompartments folds the subject's organ volumes into the
// compartments and rescales the liver, kidney and salivary rates from
// the population defaults. On error the model is unchanged.
func (m *Model) UpdateCompartments(s subject.Descriptor) error {
	if sex := s.Sex(); !sex.Valid() {
		return fmt.Errorf("%w: %v", dynamo.ErrUnsupportedSex, sex)
	}
	next := m.Compartments().DeepCopy()
	for _, r := range regions {
		total, found := 0.0, 0
		for _, part := range r.parts {
			v, ok := s.Volume(part)
			if !ok {
				continue
			}
			if v <= 0 {
				return fmt.Errorf("%w: region %q has volume %g", dynamo.ErrScalingUndefined, part, v)
			}
			total += v
			found++
		}
		switch {
		case found == len(r.parts):
		case r.optional && found == 0:
			continue
		default:
			return fmt.Errorf("%w: subject lacks region for %s (needs %v)", dynamo.ErrScalingUndefined, r.compartment, r.parts)
		}
		if err := next.Set(r.compartment, total); err != nil {
			return err
		}
	}
	return m.Bind(next, s.Sex())
}

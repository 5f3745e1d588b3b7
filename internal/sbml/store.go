package sbml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/params"
)

type listKind int

const (
	kindParameters listKind = iota
	kindCompartments
)

// Store is a params.Store view over one element list of a Document.
// The key set is fixed by the document: writes to unknown ids fail.
type Store struct {
	doc  *Document
	kind listKind
}

var _ params.Store = (*Store)(nil)

// ParameterStore views the document's listOfParameters.
func ParameterStore(doc *Document) *Store {
	ensureLists(doc)
	return &Store{doc: doc, kind: kindParameters}
}

// CompartmentStore views the document's listOfCompartments.
func CompartmentStore(doc *Document) *Store {
	ensureLists(doc)
	return &Store{doc: doc, kind: kindCompartments}
}

func ensureLists(doc *Document) {
	if doc.Model == nil {
		doc.Model = &Model{}
	}
	if doc.Model.Compartments == nil {
		doc.Model.Compartments = &ListOfCompartments{}
	}
	if doc.Model.Parameters == nil {
		doc.Model.Parameters = &ListOfParameters{}
	}
}

// Document returns the backing document. Writes through the store are
// visible in it.
func (s *Store) Document() *Document { return s.doc }

// List returns the element list the store views.
func (s *Store) List() ElementList {
	if s.kind == kindCompartments {
		return s.doc.Model.Compartments
	}
	return s.doc.Model.Parameters
}

func (s *Store) Get(key string) (float64, error) {
	el, ok := s.List().ElementByID(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrKeyNotFound, key)
	}
	return el.Value(), nil
}

func (s *Store) Set(key string, value float64) error {
	el, ok := s.List().ElementByID(key)
	if !ok {
		return fmt.Errorf("%w: %q not declared in document", dynamo.ErrKeyNotFound, key)
	}
	el.SetValue(value)
	return nil
}

func (s *Store) Keys() []string { return s.List().AllIDs() }

func (s *Store) Len() int { return s.List().Size() }

// String is the canonical SBML fragment of the viewed list.
func (s *Store) String() string { return s.List().ToSBML() }

func (s *Store) GoString() string {
	var sb strings.Builder
	if s.kind == kindCompartments {
		sb.WriteString("sbml.CompartmentStore{")
	} else {
		sb.WriteString("sbml.ParameterStore{")
	}
	for i, id := range s.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		v, _ := s.Get(id)
		sb.WriteString(id)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Copy clones the backing document; document elements are mutable
// objects so a shallow copy would share them.
func (s *Store) Copy() params.Store { return s.DeepCopy() }

func (s *Store) DeepCopy() params.Store {
	return &Store{doc: s.doc.Clone(), kind: s.kind}
}

// Update writes every key of other. All keys are checked before any
// write so an unknown key leaves the store unchanged.
func (s *Store) Update(other params.Store) error {
	list := s.List()
	for _, key := range other.Keys() {
		if _, ok := list.ElementByID(key); !ok {
			return fmt.Errorf("%w: %q not declared in document", dynamo.ErrKeyNotFound, key)
		}
	}
	return params.Merge(s, other)
}

// FromStores builds a document declaring every key of the two stores.
// Parameter units are left empty; compartment units are litres.
func FromStores(id string, parameters, compartments params.Store) (*Document, error) {
	doc := NewDocument(id, id)
	for _, key := range compartments.Keys() {
		v, err := compartments.Get(key)
		if err != nil {
			return nil, err
		}
		if err := doc.AddCompartment(key, v, "litre"); err != nil {
			return nil, err
		}
	}
	for _, key := range parameters.Keys() {
		v, err := parameters.Get(key)
		if err != nil {
			return nil, err
		}
		if err := doc.AddParameter(key, v, ""); err != nil {
			return nil, err
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

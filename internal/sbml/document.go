// Package sbml is the document-backed storage for model parameters and
// compartments. A Document holds the SBML listOfCompartments and
// listOfParameters of a model; [ParameterStore] and [CompartmentStore]
// expose them through the same params.Store contract as the plain map
// so a model does not care which backing it has.
//
// Only the structural subset the kinetics layer needs is modeled:
// element ids, names, values and units. Reactions and rules are not
// read.
package sbml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	Namespace = "http://www.sbml.org/sbml/level3/version2/core"
	Level     = 3
	Version   = 2
)

var ErrInvalidDocument = errors.New("sbml: invalid document")

// Element is one named, valued entry of an element list.
type Element interface {
	ID() string
	Value() float64
	SetValue(v float64)
}

// ElementList is an ordered collection of elements addressable by id.
type ElementList interface {
	AllIDs() []string
	ElementByID(id string) (Element, bool)
	Size() int
	ToSBML() string
}

type Document struct {
	XMLName xml.Name `xml:"sbml"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Level   int      `xml:"level,attr"`
	Version int      `xml:"version,attr"`
	Model   *Model   `xml:"model"`
}

type Model struct {
	ID           string              `xml:"id,attr,omitempty"`
	Name         string              `xml:"name,attr,omitempty"`
	Compartments *ListOfCompartments `xml:"listOfCompartments"`
	Parameters   *ListOfParameters   `xml:"listOfParameters"`
}

type Compartment struct {
	SID      string  `xml:"id,attr"`
	Name     string  `xml:"name,attr,omitempty"`
	Size     float64 `xml:"size,attr"`
	Units    string  `xml:"units,attr,omitempty"`
	Constant bool    `xml:"constant,attr"`
}

func (c *Compartment) ID() string         { return c.SID }
func (c *Compartment) Value() float64     { return c.Size }
func (c *Compartment) SetValue(v float64) { c.Size = v }

type Parameter struct {
	SID      string  `xml:"id,attr"`
	Name     string  `xml:"name,attr,omitempty"`
	Val      float64 `xml:"value,attr"`
	Units    string  `xml:"units,attr,omitempty"`
	Constant bool    `xml:"constant,attr"`
}

func (p *Parameter) ID() string         { return p.SID }
func (p *Parameter) Value() float64     { return p.Val }
func (p *Parameter) SetValue(v float64) { p.Val = v }

type ListOfCompartments struct {
	XMLName xml.Name       `xml:"listOfCompartments"`
	Items   []*Compartment `xml:"compartment"`
}

func (l *ListOfCompartments) AllIDs() []string {
	ids := make([]string, len(l.Items))
	for i, c := range l.Items {
		ids[i] = c.SID
	}
	return ids
}

func (l *ListOfCompartments) ElementByID(id string) (Element, bool) {
	for _, c := range l.Items {
		if c.SID == id {
			return c, true
		}
	}
	return nil, false
}

func (l *ListOfCompartments) Size() int { return len(l.Items) }

func (l *ListOfCompartments) ToSBML() string { return marshalFragment(l) }

type ListOfParameters struct {
	XMLName xml.Name     `xml:"listOfParameters"`
	Items   []*Parameter `xml:"parameter"`
}

func (l *ListOfParameters) AllIDs() []string {
	ids := make([]string, len(l.Items))
	for i, p := range l.Items {
		ids[i] = p.SID
	}
	return ids
}

func (l *ListOfParameters) ElementByID(id string) (Element, bool) {
	for _, p := range l.Items {
		if p.SID == id {
			return p, true
		}
	}
	return nil, false
}

func (l *ListOfParameters) Size() int { return len(l.Items) }

func (l *ListOfParameters) ToSBML() string { return marshalFragment(l) }

func marshalFragment(v any) string {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// NewDocument returns an empty level 3 document for a model id.
func NewDocument(id, name string) *Document {
	return &Document{
		Xmlns:   Namespace,
		Level:   Level,
		Version: Version,
		Model: &Model{
			ID:           id,
			Name:         name,
			Compartments: &ListOfCompartments{},
			Parameters:   &ListOfParameters{},
		},
	}
}

// AddCompartment appends a compartment. Duplicate ids are rejected.
func (d *Document) AddCompartment(id string, size float64, units string) error {
	if _, ok := d.Model.Compartments.ElementByID(id); ok {
		return fmt.Errorf("%w: duplicate compartment %q", ErrInvalidDocument, id)
	}
	d.Model.Compartments.Items = append(d.Model.Compartments.Items, &Compartment{SID: id, Size: size, Units: units, Constant: true})
	return nil
}

// AddParameter appends a parameter. Duplicate ids are rejected.
func (d *Document) AddParameter(id string, value float64, units string) error {
	if _, ok := d.Model.Parameters.ElementByID(id); ok {
		return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidDocument, id)
	}
	d.Model.Parameters.Items = append(d.Model.Parameters.Items, &Parameter{SID: id, Val: value, Units: units, Constant: true})
	return nil
}

// Clone copies the whole document structure.
func (d *Document) Clone() *Document {
	c := &Document{XMLName: d.XMLName, Xmlns: d.Xmlns, Level: d.Level, Version: d.Version}
	if d.Model == nil {
		return c
	}
	c.Model = &Model{
		ID:           d.Model.ID,
		Name:         d.Model.Name,
		Compartments: &ListOfCompartments{},
		Parameters:   &ListOfParameters{},
	}
	if d.Model.Compartments != nil {
		for _, comp := range d.Model.Compartments.Items {
			cc := *comp
			c.Model.Compartments.Items = append(c.Model.Compartments.Items, &cc)
		}
	}
	if d.Model.Parameters != nil {
		for _, p := range d.Model.Parameters.Items {
			pc := *p
			c.Model.Parameters.Items = append(c.Model.Parameters.Items, &pc)
		}
	}
	return c
}

// Validate enforces the structural invariants the stores rely on:
// a model with unique, non-empty ids, finite values and positive
// compartment sizes.
func (d *Document) Validate() error {
	if d.Model == nil {
		return fmt.Errorf("%w: no model element", ErrInvalidDocument)
	}
	if d.Model.Compartments == nil {
		d.Model.Compartments = &ListOfCompartments{}
	}
	if d.Model.Parameters == nil {
		d.Model.Parameters = &ListOfParameters{}
	}

	seen := make(map[string]bool)
	check := func(kind, id string, v float64) error {
		if id == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidDocument, kind)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, id)
		}
		seen[id] = true
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %q has non-finite value", ErrInvalidDocument, kind, id)
		}
		return nil
	}

	for _, c := range d.Model.Compartments.Items {
		if err := check("compartment", c.SID, c.Size); err != nil {
			return err
		}
		if c.Size <= 0 {
			return fmt.Errorf("%w: compartment %q must have a positive size, got %g", ErrInvalidDocument, c.SID, c.Size)
		}
	}
	for _, p := range d.Model.Parameters.Items {
		if err := check("parameter", p.SID, p.Val); err != nil {
			return err
		}
	}
	return nil
}

// ToSBML is the canonical textual form of the document.
func (d *Document) ToSBML() string {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return ""
	}
	return buf.String()
}

func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.XMLName.Local != "sbml" {
		return nil, fmt.Errorf("%w: root element %q", ErrInvalidDocument, doc.XMLName.Local)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func ReadString(s string) (*Document, error) {
	return Read(strings.NewReader(s))
}

func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Write(w io.Writer, d *Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func WriteFile(path string, d *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Package subject describes the individual a model is scaled to: sex
// plus measured organ volumes, typically taken from an XCAT phantom.
package subject

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// Descriptor is the read-only view of a subject consumed by models.
type Descriptor interface {
	Sex() Sex
	// Volume returns the measured volume of region in liters.
	Volume(region string) (float64, bool)
	Regions() []string
}

// Phantom is the concrete subject record. Volumes are in liters.
type Phantom struct {
	Name         string             `yaml:"name"`
	Gender       Sex                `yaml:"sex"`
	OrganVolumes map[string]float64 `yaml:"organ_volumes"`
	// Tumor is supplied separately from the phantom's organ table.
	Tumor float64 `yaml:"tumor,omitempty"`
}

const tumorRegion = "tumor"

func NewPhantom(name string, sex Sex, volumes map[string]float64) *Phantom {
	p := &Phantom{Name: name, Gender: sex, OrganVolumes: make(map[string]float64, len(volumes))}
	for k, v := range volumes {
		p.OrganVolumes[k] = v
	}
	return p
}

func (p *Phantom) Sex() Sex { return p.Gender }

func (p *Phantom) Volume(region string) (float64, bool) {
	if v, ok := p.OrganVolumes[region]; ok {
		return v, true
	}
	if region == tumorRegion && p.Tumor > 0 {
		return p.Tumor, true
	}
	return 0, false
}

func (p *Phantom) Regions() []string {
	regions := make([]string, 0, len(p.OrganVolumes)+1)
	for k := range p.OrganVolumes {
		regions = append(regions, k)
	}
	if _, ok := p.OrganVolumes[tumorRegion]; !ok && p.Tumor > 0 {
		regions = append(regions, tumorRegion)
	}
	sort.Strings(regions)
	return regions
}

// Validate checks the sex and that every volume is finite and positive.
func (p *Phantom) Validate() error {
	if !p.Gender.Valid() {
		return fmt.Errorf("subject %q: %w: %v", p.Name, dynamo.ErrUnsupportedSex, p.Gender)
	}
	for _, region := range p.Regions() {
		v, _ := p.Volume(region)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("subject %q: volume of %s must be positive, got %g", p.Name, region, v)
		}
	}
	return nil
}

// LoadFile reads a YAML subject description.
func LoadFile(path string) (*Phantom, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Phantom
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse subject %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

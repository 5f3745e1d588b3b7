package siebinga

import (
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/subject"
)

// Compartment names in state order.
const (
	Blood    = "blood"
	Salivary = "salivary"
	Kidney   = "kidney"
	Liver    = "liver"
	Tumor    = "tumor"
	Rest     = "rest"
)

// Topology is the fixed compartment order of the state vector.
var Topology = []string{Blood, Salivary, Kidney, Liver, Tumor, Rest}

// DefaultParams are the population values of the PSMA ligand model
// (Siebinga et al. 2023, table 2). Rates are 1/h, activities MBq,
// volumes L. The Bmax values other than salivary are placeholders for
// an effectively unbounded capacity.
func DefaultParams() *params.Map {
	return params.New(
		params.Entry{Key: "initial_activity_blood", Value: 3000},
		params.Entry{Key: "k10", Value: 0.288},
		params.Entry{Key: "k12", Value: 0.0238},
		params.Entry{Key: "k21", Value: 0.0307},
		params.Entry{Key: "k13", Value: 0.0086},
		params.Entry{Key: "k31", Value: 0.0141},
		params.Entry{Key: "k14", Value: 0.0238},
		params.Entry{Key: "k41", Value: 0.0283},
		params.Entry{Key: "k15", Value: 0.000248},
		params.Entry{Key: "k51", Value: 0.00902},
		params.Entry{Key: "k16", Value: 1.05},
		params.Entry{Key: "k61", Value: 0.744},
		params.Entry{Key: "V1", Value: 10.3},
		params.Entry{Key: "Bmax_salivary", Value: 40.4},
		params.Entry{Key: "Bmax_kidney", Value: 1e7},
		params.Entry{Key: "Bmax_liver", Value: 1e7},
		params.Entry{Key: "Bmax_tumor", Value: 1e7},
		params.Entry{Key: "Bmax_rest", Value: 1e7},
	)
}

// DefaultCompartments are volumes in litres, loosely from an XCAT
// reference phantom.
func DefaultCompartments() *params.Map {
	return params.New(
		params.Entry{Key: Blood, Value: 10.3},
		params.Entry{Key: Salivary, Value: 0.094},
		params.Entry{Key: Kidney, Value: 0.326},
		params.Entry{Key: Liver, Value: 1.764},
		params.Entry{Key: Tumor, Value: 0.00214},
		params.Entry{Key: Rest, Value: 60},
	)
}

// ReferenceVolumes are the calibration organ volumes in litres.
var ReferenceVolumes = pbpk.ReferenceTable{
	Liver:    {subject.Male: 1.2303, subject.Female: 0.9953},
	Kidney:   {subject.Male: 0.202, subject.Female: 0.154},
	Salivary: {subject.Male: 0.04166 * 2, subject.Female: 0.03324 * 2},
}

// ScaledOrgans pairs each subject-scaled compartment with its exchange
// rates with blood.
var ScaledOrgans = []pbpk.ScaledOrgan{
	{Compartment: Liver, Reference: Liver, Rates: []string{"k13", "k31"}},
	{Compartment: Kidney, Reference: Kidney, Rates: []string{"k14", "k41"}},
	{Compartment: Salivary, Reference: Salivary, Rates: []string{"k12", "k21"}},
}

// Scaling is the scaling rule used by every Siebinga model. Unbound
// models use the female reference.
func Scaling() *pbpk.Scaling {
	return &pbpk.Scaling{Table: ReferenceVolumes, Organs: ScaledOrgans, Reference: subject.Female}
}

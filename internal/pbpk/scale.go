package pbpk

import (
	"fmt"
	"math"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/params"
	"github.com/san-kum/pbpksim/internal/subject"
)

// ReferenceTable maps a reference organ to its calibration volume per sex.
type ReferenceTable map[string]map[subject.Sex]float64

// ScaledOrgan ties a compartment to its reference organ and the rate
// constants scaled with it.
type ScaledOrgan struct {
	Compartment string
	Reference   string
	Rates       []string
}

// ScaleFactors returns reference/current volume per scaled compartment.
func ScaleFactors(compartments params.Store, sex subject.Sex, table ReferenceTable, organs []ScaledOrgan) (map[string]float64, error) {
	if !sex.Valid() {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnsupportedSex, sex)
	}
	factors := make(map[string]float64, len(organs))
	for _, organ := range organs {
		ref, ok := table[organ.Reference][sex]
		if !ok || !finitePositive(ref) {
			return nil, fmt.Errorf("%w: no %s reference volume for %q", dynamo.ErrScalingUndefined, sex, organ.Reference)
		}
		vol, err := compartments.Get(organ.Compartment)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrScalingUndefined, err)
		}
		if !finitePositive(vol) {
			return nil, fmt.Errorf("%w: compartment %q has volume %g", dynamo.ErrScalingUndefined, organ.Compartment, vol)
		}
		factors[organ.Compartment] = ref / vol
	}
	return factors, nil
}

// Scale multiplies each organ's rate constants by its scale factor in a
// copy of defaults. defaults itself is never written.
func Scale(defaults, compartments params.Store, sex subject.Sex, table ReferenceTable, organs []ScaledOrgan) (params.Store, error) {
	factors, err := ScaleFactors(compartments, sex, table, organs)
	if err != nil {
		return nil, err
	}
	scaled := defaults.DeepCopy()
	for _, organ := range organs {
		f := factors[organ.Compartment]
		for _, rate := range organ.Rates {
			v, err := defaults.Get(rate)
			if err != nil {
				return nil, fmt.Errorf("scaling %s: %w", organ.Compartment, err)
			}
			if err := scaled.Set(rate, v*f); err != nil {
				return nil, err
			}
		}
	}
	return scaled, nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

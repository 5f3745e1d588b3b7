package config

import (
	"sort"

	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/subject"
)

func preset(name string, time, dt float64, s *subject.Phantom) *Config {
	return &Config{
		Model:      DefaultModel,
		Name:       name,
		Solver:     integrators.DefaultMethod.String(),
		Time:       time,
		Dt:         dt,
		Integrator: integrators.DefaultConfig(),
		Subject:    s,
	}
}

// Presets are ready-made runs keyed by model then preset name. The
// reference subjects reproduce the calibration volumes, so their scale
// factors are 1.
var Presets = map[string]map[string]*Config{
	"siebinga": {
		"reference-female": preset("reference-female", 24, 0.5, subject.NewPhantom("reference-female", subject.Female, map[string]float64{
			"liver": 0.9953, "rightkidney": 0.077, "leftkidney": 0.077, "salivaryglands": 0.06648,
		})),
		"reference-male": preset("reference-male", 24, 0.5, subject.NewPhantom("reference-male", subject.Male, map[string]float64{
			"liver": 1.2303, "rightkidney": 0.101, "leftkidney": 0.101, "salivaryglands": 0.08332,
		})),
		"xcat-female": preset("xcat-female", 48, 1, subject.NewPhantom("xcat-female", subject.Female, map[string]float64{
			"liver": 1.764, "rightkidney": 0.163, "leftkidney": 0.163, "salivaryglands": 0.094, "tumor": 0.00214,
		})),
		"xcat-male": preset("xcat-male", 48, 1, subject.NewPhantom("xcat-male", subject.Male, map[string]float64{
			"liver": 1.98, "rightkidney": 0.186, "leftkidney": 0.179, "salivaryglands": 0.112, "tumor": 0.00214,
		})),
		"first-hour": preset("first-hour", 1, 1.0/60, nil),
	},
}

// GetPreset returns a copy of a preset so callers may modify it.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	if cfg.Subject != nil {
		s := subject.NewPhantom(cfg.Subject.Name, cfg.Subject.Gender, cfg.Subject.OrganVolumes)
		s.Tumor = cfg.Subject.Tumor
		c.Subject = s
	}
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

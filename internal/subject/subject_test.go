package subject

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

func TestParseSex(t *testing.T) {
	tests := []struct {
		in   string
		want Sex
	}{
		{"male", Male},
		{"M", Male},
		{"XY", Male},
		{"female", Female},
		{" f ", Female},
		{"xx", Female},
	}
	for _, tt := range tests {
		got, err := ParseSex(tt.in)
		if err != nil {
			t.Errorf("ParseSex(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "other", "mf"} {
		if _, err := ParseSex(bad); !errors.Is(err, dynamo.ErrUnsupportedSex) {
			t.Errorf("ParseSex(%q): expected ErrUnsupportedSex, got %v", bad, err)
		}
	}
}

func TestSexFromFlag(t *testing.T) {
	if SexFromFlag(1) != Male || SexFromFlag(0) != Female {
		t.Error("numeric sex conversion wrong")
	}
	if Sex(7).Valid() {
		t.Error("out-of-range sex should be invalid")
	}
}

func TestPhantomVolumes(t *testing.T) {
	p := NewPhantom("xcat", Female, map[string]float64{"liver": 1.764, "leftkidney": 0.163})
	p.Tumor = 0.002

	if v, ok := p.Volume("liver"); !ok || v != 1.764 {
		t.Errorf("liver volume = %f, %v", v, ok)
	}
	if v, ok := p.Volume("tumor"); !ok || v != 0.002 {
		t.Errorf("tumor volume = %f, %v", v, ok)
	}
	if _, ok := p.Volume("brain"); ok {
		t.Error("unexpected brain volume")
	}

	regions := p.Regions()
	if strings.Join(regions, ",") != "leftkidney,liver,tumor" {
		t.Errorf("Regions() = %v", regions)
	}

	if err := p.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	p.OrganVolumes["brain"] = 0
	if err := p.Validate(); err == nil {
		t.Error("expected validation error for zero volume")
	}
}

const sampleLog = `XCAT phantom generation log
voxel size = 0.2 cm
ORGAN VOLUMES:
liver = 1764.000 ml
rightkidney = 163.000 ml
leftkidney = 163.000 ml
salivaryglands = 94.000 ml
brain = 1.3 L
----------------------------------------
heart = 600.000 ml
`

func TestParseLog(t *testing.T) {
	p, err := ParseLog(strings.NewReader(sampleLog), Female, 0.00214, "xcat-f")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := map[string]float64{
		"liver":          1.764,
		"rightkidney":    0.163,
		"leftkidney":     0.163,
		"salivaryglands": 0.094,
		"brain":          1.3,
	}
	if len(p.OrganVolumes) != len(want) {
		t.Errorf("expected %d organs, got %d: %v", len(want), len(p.OrganVolumes), p.OrganVolumes)
	}
	for k, v := range want {
		if math.Abs(p.OrganVolumes[k]-v) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", k, v, p.OrganVolumes[k])
		}
	}
	if _, ok := p.OrganVolumes["heart"]; ok {
		t.Error("section separator should end recording")
	}
	if p.Sex() != Female || p.Tumor != 0.00214 {
		t.Errorf("unexpected subject metadata: %+v", p)
	}
}

func TestParseLog_Errors(t *testing.T) {
	if _, err := ParseLog(strings.NewReader("no volumes here\n"), Male, 0, "x"); err == nil {
		t.Error("expected error without organ volume section")
	}
	bad := "ORGAN VOLUMES:\nliver = abc ml\n"
	if _, err := ParseLog(strings.NewReader(bad), Male, 0, "x"); err == nil {
		t.Error("expected error for malformed volume")
	}
	unit := "ORGAN VOLUMES:\nliver = 12 gallons\n"
	if _, err := ParseLog(strings.NewReader(unit), Male, 0, "x"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subject.yaml")
	content := `name: patient-7
sex: xy
organ_volumes:
  liver: 1.9
  rightkidney: 0.17
  leftkidney: 0.16
  salivaryglands: 0.09
tumor: 0.01
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.Sex() != Male {
		t.Errorf("expected male, got %v", p.Sex())
	}
	if v, _ := p.Volume("tumor"); v != 0.01 {
		t.Errorf("expected tumor 0.01, got %f", v)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("sex: robot\n"), 0644)
	if _, err := LoadFile(bad); !errors.Is(err, dynamo.ErrUnsupportedSex) {
		t.Errorf("expected ErrUnsupportedSex, got %v", err)
	}
}

func TestSexYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(map[string]Sex{"sex": Male})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(out)) != "sex: male" {
		t.Errorf("unexpected yaml: %q", out)
	}
}

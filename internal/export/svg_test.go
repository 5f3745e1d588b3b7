package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/viz"
)

func curves() *pbpk.Trajectory {
	return &pbpk.Trajectory{
		Times:        []float64{0, 1, 2},
		States:       []dynamo.State{{100, 0, 0}, {60, 30, 10}, {30, 45, 25}},
		Compartments: []string{"blood", "salivary", "kidney"},
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	svg, err := TrajectoryToSVG(curves(), 400, 300)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("not an svg document:\n%s", svg)
	}
	if n := strings.Count(svg, "<path "); n != 3 {
		t.Errorf("paths = %d, want 3", n)
	}
	for i, c := range []string{"blood", "salivary", "kidney"} {
		if !strings.Contains(svg, `data-compartment="`+c+`"`) {
			t.Errorf("no path for %s", c)
		}
		if !strings.Contains(svg, Palette[i]) {
			t.Errorf("colour %s unused", Palette[i])
		}
	}
	// blood starts at the left edge, 100/110 of the way up the plot
	if !strings.Contains(svg, `d="M40.0,60.0`) {
		t.Errorf("unexpected blood start point:\n%s", svg)
	}
}

func TestTrajectoryToSVGErrors(t *testing.T) {
	short := &pbpk.Trajectory{Times: []float64{0}, States: []dynamo.State{{1}}, Compartments: []string{"blood"}}
	if _, err := TrajectoryToSVG(short, 400, 300); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("single sample: got %v", err)
	}
	if _, err := TrajectoryToSVG(nil, 400, 300); err == nil {
		t.Error("nil trajectory accepted")
	}
	if _, err := TrajectoryToSVG(curves(), 80, 300); err == nil {
		t.Error("tiny width accepted")
	}
}

func TestSaveSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.svg")
	if err := SaveSVG(path, curves(), 640, 480); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("file is not svg")
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render empty")
	}
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("circles = %d, want 2", n)
	}
	if !strings.Contains(svg, `cx="1.0" cy="1.0"`) {
		t.Errorf("first dot misplaced:\n%s", svg)
	}
}

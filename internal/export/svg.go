package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/san-kum/pbpksim/internal/viz"
)

// Palette colours compartment curves in state order.
var Palette = []string{
	"#ff4757", // blood
	"#feca57", // salivary
	"#00a8cc", // kidney
	"#ff9ff3", // liver
	"#5fd068", // tumor
	"#cccccc", // rest
}

const padding = 40

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws the time-activity curve of every compartment
// as one path, with axes and a legend. The activity axis starts at 0.
func TrajectoryToSVG(tr *pbpk.Trajectory, width, height int) (string, error) {
	if tr == nil || tr.Len() < 2 {
		return "", fmt.Errorf("%w: need at least two samples to plot", dynamo.ErrInvalidState)
	}
	if width <= 2*padding || height <= 2*padding {
		return "", fmt.Errorf("svg size %dx%d too small", width, height)
	}

	minX, maxX := tr.Times[0], tr.Times[tr.Len()-1]
	maxY := 0.0
	for _, x := range tr.States {
		for _, v := range x {
			if v > maxY {
				maxY = v
			}
		}
	}
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	if maxY == 0 {
		maxY = 1
	}
	maxY *= 1.1

	plotW := float64(width - 2*padding)
	plotH := float64(height - 2*padding)
	px := func(t float64) float64 { return padding + (t-minX)/rangeX*plotW }
	py := func(a float64) float64 { return padding + plotH - a/maxY*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#666666" stroke-width="1">
<line x1="%d" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%d" y1="%d" x2="%d" y2="%.1f"/>
</g>
<g fill="#888888" font-family="monospace" font-size="11">
<text x="%d" y="%d">activity [MBq] (max %.4g)</text>
<text x="%.1f" y="%d" text-anchor="end">time [hr] (%.4g to %.4g)</text>
</g>
`,
		width, height, width, height,
		padding, padding+plotH, padding+plotW, padding+plotH,
		padding, padding, padding, padding+plotH,
		padding, padding-8, maxY/1.1,
		padding+plotW, height-padding/3, minX, maxX)

	for c, name := range tr.Compartments {
		color := Palette[c%len(Palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" data-compartment="%s" d="M`, color, name)
		for i, x := range tr.States {
			v := x[c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", px(tr.Times[i]), py(v))
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px(tr.Times[i]), py(v))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString(`<g font-family="monospace" font-size="11">` + "\n")
	for c, name := range tr.Compartments {
		y := padding + 14*(c+1)
		fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%d\" fill=\"%s\" text-anchor=\"end\">%s</text>\n",
			padding+plotW-4, y, Palette[c%len(Palette)], name)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

// SaveSVG renders tr and writes it to path.
func SaveSVG(path string, tr *pbpk.Trajectory, width, height int) error {
	svg, err := TrajectoryToSVG(tr, width, height)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(svg), 0o644)
}

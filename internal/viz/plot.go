package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Yellow,
	asciigraph.Blue,
	asciigraph.Magenta,
	asciigraph.Green,
	asciigraph.White,
}

// Plot draws the named compartments of tr on one asciigraph chart.
// With no names every compartment is drawn.
func Plot(tr *pbpk.Trajectory, names []string, width, height int) (string, error) {
	if tr == nil || tr.Len() < 2 {
		return "", fmt.Errorf("%w: need at least two samples to plot", dynamo.ErrInvalidState)
	}
	if len(names) == 0 {
		names = tr.Compartments
	}
	series := make([][]float64, 0, len(names))
	colors := make([]asciigraph.AnsiColor, 0, len(names))
	for _, name := range names {
		s, err := tr.Series(name)
		if err != nil {
			return "", err
		}
		series = append(series, s)
		colors = append(colors, seriesColors[tr.Index(name)%len(seriesColors)])
	}
	caption := fmt.Sprintf("activity [MBq], %g to %g hr: %s",
		tr.Times[0], tr.Times[tr.Len()-1], strings.Join(names, ", "))
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	), nil
}

// Summary renders a run result as a panel: per-compartment final
// activity with a sparkline, then the metric values in name order.
func Summary(title string, tr *pbpk.Trajectory, metrics map[string]float64) string {
	theme := CurrentTheme
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(title)) + "\n\n")

	if tr != nil && tr.Len() > 0 {
		final := tr.Final()
		s.WriteString(MetricLabel.Render("solver") + MetricValue.Render(tr.Solver.String()) + "\n")
		s.WriteString(MetricLabel.Render("samples") + MetricValue.Render(fmt.Sprintf("%d", tr.Len())) + "\n")
		s.WriteString(MetricLabel.Render("steps") + MetricValue.Render(fmt.Sprintf("%d (%d rejected)", tr.Stats.Steps, tr.Stats.Rejected)) + "\n\n")
		for i, c := range tr.Compartments {
			series, _ := tr.Series(c)
			name := lipgloss.NewStyle().Foreground(theme.SeriesColor(i)).Width(14).Render(c)
			s.WriteString(name + fmt.Sprintf("%12.4f MBq  ", final[i]) + Sparkline(series, 24) + "\n")
		}
		if n := len(tr.Warnings); n > 0 {
			w := tr.Warnings[0]
			s.WriteString("\n" + theme.Warn(fmt.Sprintf("%d capacity warnings, first: %v", n, w)) + "\n")
		}
	}

	if len(metrics) > 0 {
		s.WriteString("\n" + Separator(40) + "\n")
		keys := make([]string, 0, len(metrics))
		for k := range metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.WriteString(MetricLabel.Width(22).Render(k) + MetricValue.Render(formatValue(metrics[k])) + "\n")
		}
	}
	return GlassPanel.Render(s.String())
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.6g", v)
}

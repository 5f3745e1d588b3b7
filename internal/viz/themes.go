package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the playback view. Series colours the
// compartment curves in state order.
type Theme struct {
	Name    string
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Series  []lipgloss.Color
}

func palette(hex ...string) []lipgloss.Color {
	out := make([]lipgloss.Color, len(hex))
	for i, h := range hex {
		out[i] = lipgloss.Color(h)
	}
	return out
}

var (
	ThemeOcean = Theme{
		Name:    "ocean",
		Accent:  "#ffd700",
		Text:    "#e0f0ff",
		Muted:   "#4488aa",
		Warning: "#ff4444",
		Series:  palette("#ff4444", "#ffd700", "#00a8cc", "#e0f0ff", "#00ff88", "#4488aa"),
	}

	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Accent:  "#ffff00",
		Text:    "#ffffff",
		Muted:   "#666666",
		Warning: "#ff8800",
		Series:  palette("#ff0055", "#ffff00", "#00ffff", "#ff00ff", "#00ff00", "#aaaaaa"),
	}

	// single-hue phosphor; compartments differ by brightness only
	ThemeRetroGreen = Theme{
		Name:    "retro",
		Accent:  "#88ff88",
		Text:    "#00ff00",
		Muted:   "#005500",
		Warning: "#ffff00",
		Series:  palette("#00ff00", "#88ff88", "#00cc00", "#ccffcc", "#009900", "#006600"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Accent:  "#0088ff",
		Text:    "#ffffff",
		Muted:   "#888888",
		Warning: "#ffaa00",
		Series:  palette("#ffffff", "#0088ff", "#ffaa00", "#cccccc", "#00ff00", "#888888"),
	}

	CurrentTheme = ThemeOcean

	Themes = []Theme{ThemeOcean, ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, or ocean.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}

// SeriesColor is the theme colour for state column i.
func (t Theme) SeriesColor(i int) lipgloss.Color {
	if len(t.Series) == 0 {
		return t.Text
	}
	return t.Series[i%len(t.Series)]
}

// Warn renders s in the theme's warning colour.
func (t Theme) Warn(s string) string {
	return StatusWarning.Foreground(t.Warning).Render(s)
}

package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/portrait/internal/phase"
)

// Theme is a palette for portraits: one color per curve kind plus the
// colors of the surrounding UI.
type Theme struct {
	Name           string
	Orbit          lipgloss.Color
	Stable         lipgloss.Color
	Unstable       lipgloss.Color
	CenterStable   lipgloss.Color
	CenterUnstable lipgloss.Color
	LimitCycle     lipgloss.Color
	Curve          lipgloss.Color
	Background     lipgloss.Color
	Text           lipgloss.Color
	Muted          lipgloss.Color
}

// Available themes
var (
	ThemeClassic = Theme{
		Name:           "classic",
		Orbit:          lipgloss.Color("#ffd700"),
		Stable:         lipgloss.Color("#4488ff"),
		Unstable:       lipgloss.Color("#ff4444"),
		CenterStable:   lipgloss.Color("#00cccc"),
		CenterUnstable: lipgloss.Color("#ff00ff"),
		LimitCycle:     lipgloss.Color("#00ff88"),
		Curve:          lipgloss.Color("#ff8800"),
		Background:     lipgloss.Color("#0a0a0a"),
		Text:           lipgloss.Color("#ffffff"),
		Muted:          lipgloss.Color("#666666"),
	}

	ThemeRetroGreen = Theme{
		Name:           "retro",
		Orbit:          lipgloss.Color("#00cc00"),
		Stable:         lipgloss.Color("#88ff88"),
		Unstable:       lipgloss.Color("#00ff00"),
		CenterStable:   lipgloss.Color("#55aa55"),
		CenterUnstable: lipgloss.Color("#aaffaa"),
		LimitCycle:     lipgloss.Color("#ffff00"),
		Curve:          lipgloss.Color("#66dd66"),
		Background:     lipgloss.Color("#001100"),
		Text:           lipgloss.Color("#00ff00"),
		Muted:          lipgloss.Color("#005500"),
	}

	ThemePaper = Theme{
		Name:           "paper",
		Orbit:          lipgloss.Color("#333333"),
		Stable:         lipgloss.Color("#0055aa"),
		Unstable:       lipgloss.Color("#cc0000"),
		CenterStable:   lipgloss.Color("#007777"),
		CenterUnstable: lipgloss.Color("#aa00aa"),
		LimitCycle:     lipgloss.Color("#008800"),
		Curve:          lipgloss.Color("#cc6600"),
		Background:     lipgloss.Color("#ffffff"),
		Text:           lipgloss.Color("#000000"),
		Muted:          lipgloss.Color("#999999"),
	}

	// Default theme
	CurrentTheme = ThemeClassic

	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemePaper,
	}
)

// Hex returns the color of curve kind c.
func (t Theme) Hex(c phase.Color) lipgloss.Color {
	switch c {
	case phase.ColorStable:
		return t.Stable
	case phase.ColorUnstable:
		return t.Unstable
	case phase.ColorCenterStable:
		return t.CenterStable
	case phase.ColorCenterUnstable:
		return t.CenterUnstable
	case phase.ColorLimitCycle:
		return t.LimitCycle
	case phase.ColorCurve:
		return t.Curve
	default:
		return t.Orbit
	}
}

func (t Theme) Style(c phase.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hex(c))
}

// GetTheme returns a theme by name, or the default theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

package viz

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/portrait/internal/phase"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusDone    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	StatusFailed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// StatusStyle picks the badge style of a session state.
func StatusStyle(s phase.SessionState, paused bool) lipgloss.Style {
	switch {
	case s == phase.Aborted:
		return StatusFailed
	case s == phase.Finished:
		return StatusDone
	case paused:
		return StatusPaused
	default:
		return StatusRunning
	}
}

// Legend lists the curve kinds drawn so far with their counts.
func Legend(t Theme, pt *Portrait) string {
	kinds := []struct {
		c    phase.Color
		name string
	}{
		{phase.ColorUnstable, "unstable"},
		{phase.ColorStable, "stable"},
		{phase.ColorCenterUnstable, "center-unstable"},
		{phase.ColorCenterStable, "center-stable"},
		{phase.ColorOrbit, "orbit"},
		{phase.ColorLimitCycle, "limit cycle"},
		{phase.ColorCurve, "curve"},
	}
	var b strings.Builder
	for _, k := range kinds {
		n := pt.Count(k.c)
		if n == 0 {
			continue
		}
		b.WriteString(t.Style(k.c).Render("━━ ") + labelStyle.Render(k.name) + valueStyle.Render(strconv.Itoa(n)) + "\n")
	}
	return b.String()
}

// Separator is a muted horizontal rule.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return dimStyle.Render(left + " ◆ " + right)
}

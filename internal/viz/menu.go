package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Entry is one line of the picker.
type Entry struct {
	Name string
	Info string
}

// Picker is a menu of named entries, used to choose a preset before a live
// session.
type Picker struct {
	entries  []Entry
	cursor   int
	chosen   string
	canceled bool
}

func NewPicker(entries []Entry) Picker {
	return Picker{entries: entries}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		p.canceled = true
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.entries)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.entries) > 0 {
			p.chosen = p.entries[p.cursor].Name
			return p, tea.Quit
		}
	}
	return p, nil
}

func (p Picker) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("PHASE PORTRAITS") + "\n")
	for i, e := range p.entries {
		line := e.Name
		if e.Info != "" {
			line += "  " + dimStyle.Render(e.Info)
		}
		if i == p.cursor {
			b.WriteString(selectedStyle.Render("> "+e.Name))
			if e.Info != "" {
				b.WriteString("  " + dimStyle.Render(e.Info))
			}
			b.WriteString("\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString(helpStyle.Render("↑↓:Move Enter:Select Q:Quit"))
	return b.String()
}

// Chosen is the selected entry name; empty when the picker was dismissed.
func (p Picker) Chosen() string {
	if p.canceled {
		return ""
	}
	return p.chosen
}

// Pick runs the picker full screen and returns the chosen name.
func Pick(entries []Entry) (string, error) {
	final, err := tea.NewProgram(NewPicker(entries), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	return final.(Picker).Chosen(), nil
}

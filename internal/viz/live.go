package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/portrait/internal/phase"
)

const (
	width  = 60
	height = 24

	defaultStepsPerTick = 20
)

// Session is the cooperative side of a trace controller.
type Session interface {
	Continue(ctx context.Context) error
	State() phase.SessionState
	Cancel()
}

type TickMsg time.Time

// Model advances a session on every tick and shows the disc it draws into.
type Model struct {
	ctx          context.Context
	session      Session
	portrait     *Portrait
	title        string
	theme        Theme
	running      bool
	showHelp     bool
	stepsPerTick int
	ticks        int
	err          error

	series  func() []float64
	caption string
}

type Option func(*Model)

// WithSeries plots fn below the statistics, e.g. the displacement of
// successive returns of a limit-cycle search.
func WithSeries(caption string, fn func() []float64) Option {
	return func(m *Model) { m.caption, m.series = caption, fn }
}

func WithStepsPerTick(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.stepsPerTick = n
		}
	}
}

func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// NewCanvasPortrait returns a portrait sized for the live view.
func NewCanvasPortrait() *Portrait {
	return NewPortrait(NewCanvas(width, height))
}

// NewModel wraps a started session. pt must be the sink the session draws
// into.
func NewModel(ctx context.Context, title string, s Session, pt *Portrait, opts ...Option) Model {
	m := Model{
		ctx:          ctx,
		session:      s,
		portrait:     pt,
		title:        title,
		theme:        CurrentTheme,
		running:      true,
		stepsPerTick: defaultStepsPerTick,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.session.Cancel()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			m.theme = NextTheme(m.theme)
		}
	case TickMsg:
		m.ticks++
		if m.running {
			m.step()
		}
		if m.session.State().Terminal() {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

// step calls Continue until the tick budget is spent or the session ends.
func (m *Model) step() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.session.State().Terminal() {
			return
		}
		if err := m.session.Continue(m.ctx); err != nil {
			m.err = err
			return
		}
	}
}

// Err is the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	state := m.session.State()
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := strings.ToUpper(state.String())
	if !m.running && !state.Terminal() {
		status = "PAUSED"
	}
	s.WriteString(StatusStyle(state, !m.running).Render(status) + "\n\n")

	s.WriteString(labelStyle.Render("Points") + valueStyle.Render(fmt.Sprintf("%d", m.portrait.Total())) + "\n")
	s.WriteString(labelStyle.Render("Theme") + valueStyle.Render(m.theme.Name) + "\n")
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, phase.ErrCanceled) {
			msg = "canceled"
		}
		s.WriteString(labelStyle.Render("Error") + StatusFailed.Render(msg) + "\n")
	}
	s.WriteString("\n" + Legend(m.theme, m.portrait))

	if m.series != nil {
		if data := m.series(); len(data) > 1 {
			chart := asciigraph.Plot(data, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(m.caption))
			s.WriteString(graphStyle.Render(chart) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n" + Separator(24) + "\nSP:Pause T:Theme ?:Help Q:Quit"))
	statsView := statsStyle.Render(s.String())
	canvasView := canvasStyle.Render(m.portrait.Render(m.theme))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume tracing     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Cancel and quit          ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run shows the model full screen until the user quits.
func Run(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/render"
)

type queueReadyMsg struct{}

type tickMsg time.Time

type feedStoppedMsg struct {
	err error
}

// model is the bubbletea model of the interactive host. Update runs on the program
// goroutine, which is the control goroutine for as long as the program runs.
type model struct {
	face    *face
	stopped <-chan error

	width  int
	status string
	err    error
}

func runTUI(ctx context.Context, f *face, stopped <-chan error) error {
	m := model{face: f, stopped: stopped}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running terminal host: %w", err)
	}

	if m, ok := final.(model); ok && m.err != nil {
		return m.err
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.waitQueue(), m.waitFeed(), m.scheduleTick(), m.refreshNow())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case queueReadyMsg:
		m.face.queue.Drain()
		return m, m.waitQueue()

	case tickMsg:
		m.face.tick(time.Time(msg))
		return m, m.scheduleTick()

	case feedStoppedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("feed stopped: %w", msg.err)
			return m, tea.Quit
		}
		m.status = "feed ended"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.face
	key := msg.String()

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "a":
		f.setAmbient(!f.grid.Ambient())
	case "v":
		f.grid.SetVisible(!f.grid.Visible())
	case "l":
		f.grid.SetLowPowerRendering(!f.grid.LowPowerRendering())
	case "b":
		f.grid.SetBurnInProtection(!f.grid.BurnInProtection())
	case "i":
		f.grid.InvertColors()
	case "p":
		f.toggleLocationPermission()
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			f.toggleOptional(int(key[0] - '1'))
		}
	}

	m.status = ""
	return m, nil
}

func (m model) View() string {
	f := m.face
	frame := f.frame()
	background := lipgloss.Color(frame.Background.Hex())

	var lines []string
	for _, row := range frame.Rows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, cellStyle(c, background).Render(c.Text))
		}
		lines = append(lines, strings.Join(cells, "   "))
	}

	screen := lipgloss.NewStyle().
		Background(background).
		Padding(1, 4).
		Align(lipgloss.Center)
	if m.width > 0 {
		screen = screen.Width(m.width)
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.statusLine())

	return screen.Render(lipgloss.JoinVertical(lipgloss.Center, lines...)) + "\n" + help
}

func cellStyle(c render.Cell, background lipgloss.Color) lipgloss.Style {
	style := lipgloss.NewStyle().Background(background).Foreground(lipgloss.Color(c.Style.Color.Hex()))
	if c.Style.Dim {
		style = style.Faint(true)
	}
	if c.Style.AntiAlias && c.Style.Scale >= 1 {
		style = style.Bold(true)
	}
	return style
}

func (m model) statusLine() string {
	f := m.face

	flag := func(name string, on bool) string {
		if on {
			return name + " on"
		}
		return name + " off"
	}

	parts := []string{
		flag("ambient", f.grid.Ambient()),
		flag("visible", f.grid.Visible()),
		flag("low-power", f.grid.LowPowerRendering()),
		flag("burn-in", f.grid.BurnInProtection()),
		"location " + string(f.registry.Status(permission.Location)),
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	return strings.Join(parts, " | ") + "\n[a]mbient [v]isible [l]ow-power [b]urn-in [i]nvert [p]ermission [1-9] cells [q]uit"
}

func (m model) waitQueue() tea.Cmd {
	ready := m.face.queue.Ready()
	return func() tea.Msg {
		<-ready
		return queueReadyMsg{}
	}
}

func (m model) waitFeed() tea.Cmd {
	stopped := m.stopped
	return func() tea.Msg {
		return feedStoppedMsg{err: <-stopped}
	}
}

func (m model) scheduleTick() tea.Cmd {
	return tea.Tick(m.face.config.Display.InteractiveTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) refreshNow() tea.Cmd {
	return func() tea.Msg {
		return tickMsg(time.Now())
	}
}

package tui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/multiwin/internal/config"
)

// SettingsTab shows and edits the daemon settings.
type SettingsTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fLogLevel      string
	fBackend       string
	fWindowWidth   string
	fWindowHeight  string
	fEngineCommand string
	fShutdown      string
	fReapInterval  string
}

// NewSettingsTab creates a SettingsTab from the loaded config.
func NewSettingsTab(cfg *config.Config) SettingsTab {
	return SettingsTab{cfg: cfg}
}

// Update implements tea.Model.
func (st SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if st.editing {
		return st.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" {
			st.startEditing()
			return st, st.form.Init()
		}
	case tea.WindowSizeMsg:
		st.width = msg.Width
		st.height = msg.Height
	}
	return st, nil
}

func (st SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			st.editing = false
			st.form = nil
			return st, nil
		}
	case tea.WindowSizeMsg:
		st.width = msg.Width
		st.height = msg.Height
	}

	form, cmd := st.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		st.form = f
	}

	if st.form.State == huh.StateCompleted {
		st.applyForm()
		st.editing = false
		st.form = nil
		return st, nil
	}
	return st, cmd
}

func (st *SettingsTab) startEditing() {
	cfg := st.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	st.fLogLevel = cfg.LogLevel
	st.fBackend = cfg.Backend.Name
	st.fWindowWidth = formatFloat(cfg.Window.Width)
	st.fWindowHeight = formatFloat(cfg.Window.Height)
	st.fEngineCommand = cfg.Engine.Command
	st.fShutdown = cfg.Engine.ShutdownTimeout
	st.fReapInterval = cfg.Daemon.ReapInterval

	w := st.width - 4
	if w < 40 {
		w = 40
	}

	st.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warning", "error")...).
				Value(&st.fLogLevel),

			huh.NewSelect[string]().
				Key("backend").
				Title("Backend").
				Description("Window system; takes effect on daemon restart").
				Options(huh.NewOptions(config.BackendX11, config.BackendSim)...).
				Value(&st.fBackend),

			huh.NewInput().
				Key("window_width").
				Title("Window Width").
				Description("Content width of new windows").
				Validate(validatePositive).
				Value(&st.fWindowWidth),

			huh.NewInput().
				Key("window_height").
				Title("Window Height").
				Description("Content height of new windows").
				Validate(validatePositive).
				Value(&st.fWindowHeight),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("engine_command").
				Title("Engine Command").
				Description("Program hosted in every window; empty for none").
				Value(&st.fEngineCommand),

			huh.NewInput().
				Key("shutdown_timeout").
				Title("Engine Shutdown Timeout").
				Validate(validateDuration).
				Value(&st.fShutdown),

			huh.NewInput().
				Key("reap_interval").
				Title("Reap Interval").
				Validate(validateDuration).
				Value(&st.fReapInterval),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	st.editing = true
}

func (st *SettingsTab) applyForm() {
	if st.cfg == nil {
		return
	}
	st.cfg.LogLevel = st.fLogLevel
	st.cfg.Backend.Name = st.fBackend
	if v, err := strconv.ParseFloat(st.fWindowWidth, 64); err == nil && v > 0 {
		st.cfg.Window.Width = v
	}
	if v, err := strconv.ParseFloat(st.fWindowHeight, 64); err == nil && v > 0 {
		st.cfg.Window.Height = v
	}
	st.cfg.Engine.Command = strings.TrimSpace(st.fEngineCommand)
	if st.cfg.Engine.Command == "" {
		st.cfg.Engine.Args = nil
	}
	st.cfg.Engine.ShutdownTimeout = st.fShutdown
	st.cfg.Daemon.ReapInterval = st.fReapInterval
}

var (
	errPositive = errors.New("must be a number > 0")
	errDuration = errors.New("must be a duration like 3s")
)

func validatePositive(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return errPositive
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return errDuration
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// View implements tea.Model.
func (st SettingsTab) View() string {
	if st.editing && st.form != nil {
		return st.viewEditing()
	}
	return st.viewDisplay()
}

func (st SettingsTab) viewDisplay() string {
	cfg := st.cfg
	if cfg == nil {
		return lipgloss.NewStyle().
			Width(st.width).
			Height(st.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	engine := displayOrDefault(strings.Join(append([]string{cfg.Engine.Command}, cfg.Engine.Args...), " "), "(none)")

	lines := []string{
		"",
		row("Log Level", cfg.LogLevel),
		row("Backend", cfg.Backend.Name),
		row("Display", displayOrDefault(cfg.Backend.Display, "($DISPLAY)")),
		"",
		row("Window Size", formatFloat(cfg.Window.Width)+" x "+formatFloat(cfg.Window.Height)),
		row("Engine", strings.TrimSpace(engine)),
		row("Shutdown Timeout", cfg.Engine.ShutdownTimeout),
		row("Reap Interval", cfg.Daemon.ReapInterval),
		row("Frames Dir", displayOrDefault(cfg.Frames.Dir, "(default)")),
		"",
		dimStyle.Render("  Press 'e' to edit settings"),
	}

	return lipgloss.NewStyle().
		Width(st.width).
		Height(st.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (st SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(st.width).
		Height(st.height).
		Padding(1, 2).
		Render(header + "\n\n" + st.form.View())
}

func displayOrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

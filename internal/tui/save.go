package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/multiwin/internal/config"
)

var errNoChanges = errors.New("no changes to save")

// Reloader asks a running daemon to re-read its config.
type Reloader interface {
	Reload() error
}

type savePhase int

const (
	saveHidden savePhase = iota
	savePreview
	saveResult
)

// pendingChanges splits a config diff by how the daemon picks it up.
type pendingChanges struct {
	reload  []config.Change
	restart []config.Change
}

func splitChanges(original, current *config.Config) pendingChanges {
	var p pendingChanges
	for _, c := range config.Diff(original, current) {
		if c.Reloadable {
			p.reload = append(p.reload, c)
		} else {
			p.restart = append(p.restart, c)
		}
	}
	return p
}

func (p pendingChanges) empty() bool { return len(p.reload)+len(p.restart) == 0 }

// lines renders both groups with a heading each. Empty groups are left out.
func (p pendingChanges) lines() []string {
	var out []string
	group := func(title string, cs []config.Change) {
		if len(cs) == 0 {
			return
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, title)
		for _, c := range cs {
			out = append(out, "  "+c.String())
		}
	}
	group("Applies on reload", p.reload)
	group("Needs daemon restart", p.restart)
	return out
}

// SaveOverlay previews pending config changes, writes them on confirmation
// and asks a connected daemon to reload.
type SaveOverlay struct {
	phase    savePhase
	changes  pendingChanges
	err      error
	reloaded bool
	scroll   int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool { return s.phase != saveHidden }

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool { return s.phase == saveResult && s.err == nil }

// Show opens the preview, or a result box when nothing changed.
func (s *SaveOverlay) Show(original, current *config.Config) {
	*s = SaveOverlay{changes: splitChanges(original, current), phase: savePreview}
	if s.changes.empty() {
		s.phase = saveResult
		s.err = errNoChanges
	}
}

// Update handles input while the overlay is active.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, daemon Reloader, connected bool) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	if s.phase == saveResult {
		s.phase = saveHidden
		return s
	}
	if s.phase != savePreview {
		return s
	}

	switch km.String() {
	case "esc":
		s.phase = saveHidden
	case "enter", "y":
		s.err = saveConfig(cfg, path)
		// A reload only helps when something reloadable changed.
		if s.err == nil && connected && daemon != nil && len(s.changes.reload) > 0 {
			s.reloaded = daemon.Reload() == nil
		}
		s.phase = saveResult
	case "up", "k":
		s.scroll = max(s.scroll-1, 0)
	case "down", "j":
		s.scroll++
	}
	return s
}

// View renders the overlay centered in a width x height area.
func (s SaveOverlay) View(width, height int) string {
	switch s.phase {
	case savePreview:
		return s.viewPreview(width, height)
	case saveResult:
		return s.viewResult(width, height)
	}
	return ""
}

var (
	overlayTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	overlayHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	overlayChange  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	overlayHint    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overlayOK      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	overlayErr     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func overlayBox(areaW, areaH, maxW int, content string) string {
	w := min(max(areaW-8, 30), maxW)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(w).
		Render(content)
	return lipgloss.Place(areaW, areaH, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(areaW, areaH int) string {
	all := s.changes.lines()
	rows := max(areaH-10, 3)
	off := min(s.scroll, max(len(all)-rows, 0))
	visible := all[off:min(off+rows, len(all))]

	var b strings.Builder
	b.WriteString(overlayTitle.Render("Save config"))
	b.WriteString("\n\n")
	for i, l := range visible {
		if i > 0 {
			b.WriteByte('\n')
		}
		if strings.HasPrefix(l, "  ") {
			b.WriteString(overlayChange.Render(l))
		} else {
			b.WriteString(overlayHeading.Render(l))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(overlayHint.Render("enter: save  esc: cancel  j/k: scroll"))
	return overlayBox(areaW, areaH, 80, b.String())
}

func (s SaveOverlay) viewResult(areaW, areaH int) string {
	var msg string
	switch {
	case s.err != nil:
		msg = overlayErr.Render("Error: " + s.err.Error())
	default:
		msg = overlayOK.Render("Config saved")
		if s.reloaded {
			msg += "\n" + overlayOK.Render("Daemon reloaded")
		}
		if n := len(s.changes.restart); n > 0 {
			msg += "\n" + overlayHeading.Render(fmt.Sprintf("Restart the daemon to apply %d more change(s)", n))
		}
	}
	return overlayBox(areaW, areaH, 60, msg+"\n\n"+overlayHint.Render("press any key to dismiss"))
}

func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveTo(path)
}

package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/multiwin/internal/config"
)

const envPrefix = "engine.env."

// sourceItem is a list item for one config path.
type sourceItem struct {
	path     string
	fromFile bool
}

func (i sourceItem) Title() string {
	if i.fromFile {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●") + " " + i.path
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○") + " " + i.path
}

func (i sourceItem) Description() string {
	if i.fromFile {
		return "set in config file"
	}
	return "default"
}

func (i sourceItem) FilterValue() string { return i.path }

// SourcesTab lists every config path with its effective value and origin.
type SourcesTab struct {
	list   list.Model
	res    *config.LoadResult
	width  int
	height int

	// Add mode for engine environment variables
	adding    bool
	textInput textinput.Model
}

// NewSourcesTab creates a SourcesTab from a load result.
func NewSourcesTab(res *config.LoadResult) SourcesTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(buildSourceItems(res), delegate, 0, 0)
	l.Title = "Config Sources"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "NAME=value"
	ti.CharLimit = 256

	return SourcesTab{
		list:      l,
		res:       res,
		textInput: ti,
	}
}

// Update handles messages for the sources tab.
func (t SourcesTab) Update(msg tea.Msg) (SourcesTab, tea.Cmd) {
	if t.adding {
		return t.updateAdding(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.listWidth(), t.height)
		return t, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			if t.res == nil {
				return t, nil
			}
			t.adding = true
			t.textInput.Reset()
			t.textInput.Focus()
			return t, textinput.Blink
		case "x", "delete":
			if item, ok := t.list.SelectedItem().(sourceItem); ok {
				if name, ok := strings.CutPrefix(item.path, envPrefix); ok {
					t.removeEnv(name)
				}
			}
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t SourcesTab) updateAdding(msg tea.Msg) (SourcesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			name, value, ok := strings.Cut(strings.TrimSpace(t.textInput.Value()), "=")
			if ok && strings.TrimSpace(name) != "" {
				t.addEnv(strings.TrimSpace(name), value)
			}
			t.adding = false
			t.textInput.Blur()
			return t, nil
		case "esc":
			t.adding = false
			t.textInput.Blur()
			return t, nil
		}
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		return t, nil
	}

	var cmd tea.Cmd
	t.textInput, cmd = t.textInput.Update(msg)
	return t, cmd
}

func (t SourcesTab) listWidth() int {
	w := t.width * 2 / 5
	if w < 20 {
		w = 20
	}
	return w
}

func (t *SourcesTab) addEnv(name, value string) {
	cfg := t.res.Config
	if cfg.Engine.Env == nil {
		cfg.Engine.Env = map[string]string{}
	}
	cfg.Engine.Env[name] = value
	t.list.SetItems(buildSourceItems(t.res))
}

func (t *SourcesTab) removeEnv(name string) {
	if t.res == nil || t.res.Config == nil {
		return
	}
	delete(t.res.Config.Engine.Env, name)
	t.list.SetItems(buildSourceItems(t.res))
}

// View implements tea.Model.
func (t SourcesTab) View() string {
	if t.width == 0 || t.height == 0 {
		return ""
	}

	leftWidth := t.listWidth()
	rightWidth := t.width - leftWidth
	if rightWidth < 10 {
		rightWidth = 10
	}

	var leftContent string
	if t.adding {
		inputStyle := lipgloss.NewStyle().Padding(0, 1).Width(leftWidth)
		prompt := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Add engine variable:") + "\n" +
			t.textInput.View() + "\n" +
			lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter: confirm  esc: cancel")
		inputBlock := inputStyle.Render(prompt)
		listHeight := t.height - lipgloss.Height(inputBlock)
		if listHeight < 1 {
			listHeight = 1
		}
		t.list.SetSize(leftWidth, listHeight)
		leftContent = inputBlock + "\n" + t.list.View()
	} else {
		leftContent = t.list.View()
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(t.height).
		Render(leftContent)

	var right string
	if item, ok := t.list.SelectedItem().(sourceItem); ok {
		right = renderSourceDetail(item, t.res, rightWidth, t.height)
	} else {
		right = lipgloss.NewStyle().
			Width(rightWidth).
			Height(t.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// buildSourceItems lists every explainable path plus one per engine variable.
func buildSourceItems(res *config.LoadResult) []list.Item {
	if res == nil || res.Config == nil {
		return nil
	}
	paths := config.Paths()
	names := make([]string, 0, len(res.Config.Engine.Env))
	for name := range res.Config.Engine.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		paths = append(paths, envPrefix+name)
	}

	items := make([]list.Item, 0, len(paths))
	for _, p := range paths {
		_, fromFile := res.Sources[p]
		items = append(items, sourceItem{path: p, fromFile: fromFile})
	}
	return items
}

func renderSourceDetail(item sourceItem, res *config.LoadResult, width, height int) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	b.WriteString(titleStyle.Render(item.path))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(10)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	value, src, err := config.Explain(res, item.path)
	if err != nil {
		field("error:", err.Error())
	} else {
		field("value:", formatValue(value))
		field("source:", src.String())
	}

	if res != nil && len(res.Files) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("files:"))
		b.WriteString("\n")
		for _, f := range res.Files {
			b.WriteString(valueStyle.Render("  " + f))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	b.WriteString(helpStyle.Render("a: add engine variable  x: remove variable"))

	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("236"))

	return style.Render(b.String())
}

// formatValue renders scalars inline and collections as YAML.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if v == "" {
			return `""`
		}
		return v
	case []string, map[string]string:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		s := strings.TrimSpace(string(out))
		if s == "[]" || s == "{}" {
			return s
		}
		return "\n" + s
	}
	return fmt.Sprint(v)
}

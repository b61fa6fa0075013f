package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/registry"
)

const refreshInterval = 2 * time.Second

// windowItem implements list.Item for the window sidebar.
type windowItem struct {
	info registry.Info
}

func (i windowItem) Title() string {
	title := i.info.Title
	if title == "" {
		title = "(untitled)"
	}
	label := fmt.Sprintf("%d  %s", i.info.ID, title)
	if i.info.State != "" && i.info.State != "visible" {
		label += " [" + i.info.State + "]"
	}
	return label
}

func (i windowItem) Description() string { return "" }
func (i windowItem) FilterValue() string { return i.info.Title }

// statusMsg is sent after an IPC action completes.
type statusMsg struct {
	text string
}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

// refreshWindowsMsg triggers a refresh of window data from the daemon.
type refreshWindowsMsg struct{}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshWindowsMsg{}
	})
}

type inputMode int

const (
	inputNone inputMode = iota
	inputCreate
	inputTitle
)

// WindowsTab is the sub-model for the window browser tab.
type WindowsTab struct {
	list   list.Model
	input  textinput.Model
	daemon Daemon

	mode      inputMode
	windows   []registry.Info
	screen    geometry.Rect
	backend   string
	connected bool

	statusText string

	width  int
	height int
	ready  bool
}

// NewWindowsTab creates a WindowsTab and loads the current windows.
func NewWindowsTab(daemon Daemon) WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.CharLimit = 256

	wt := WindowsTab{
		list:   l,
		input:  ti,
		daemon: daemon,
	}
	wt.refreshFromDaemon()
	return wt
}

// Init implements tea.Model.
func (wt WindowsTab) Init() tea.Cmd {
	return scheduleRefresh()
}

// capturing reports whether the text input owns the keyboard.
func (wt WindowsTab) capturing() bool {
	return wt.mode != inputNone
}

// status returns the daemon summary for the status bar.
func (wt WindowsTab) status() daemonStatus {
	return daemonStatus{
		connected: wt.connected,
		backend:   wt.backend,
		windows:   len(wt.windows),
	}
}

// Update implements tea.Model.
func (wt WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wt.width = msg.Width
		wt.height = msg.Height
		wt.updateListSize()
		wt.ready = true
		return wt, nil

	case statusMsg:
		wt.statusText = msg.text
		return wt, clearStatusAfter()

	case clearStatusMsg:
		wt.statusText = ""
		return wt, nil

	case refreshWindowsMsg:
		wt.refreshFromDaemon()
		return wt, scheduleRefresh()

	case tea.KeyMsg:
		if wt.capturing() {
			return wt.updateInput(msg)
		}
		switch msg.String() {
		case "n":
			return wt.startInput(inputCreate, "engine arguments", "")
		case "t":
			if info, ok := wt.selected(); ok {
				return wt.startInput(inputTitle, "window title", info.Title)
			}
			return wt, nil
		case "enter", "f":
			return wt.invokeSelected("focus", nil)
		case "s":
			return wt.invokeSelected("show", nil)
		case "h":
			return wt.invokeSelected("hide", nil)
		case "z":
			return wt.invokeSelected("minimize", nil)
		case "c":
			return wt.invokeSelected("center", nil)
		case "m":
			return wt.toggleMaximize()
		case "x":
			return wt.closeSelected()
		case "r":
			wt.refreshFromDaemon()
			return wt, nil
		}
	}

	if wt.capturing() {
		var cmd tea.Cmd
		wt.input, cmd = wt.input.Update(msg)
		return wt, cmd
	}

	var cmd tea.Cmd
	wt.list, cmd = wt.list.Update(msg)
	return wt, cmd
}

func (wt WindowsTab) startInput(mode inputMode, placeholder, value string) (WindowsTab, tea.Cmd) {
	wt.mode = mode
	wt.input.Placeholder = placeholder
	wt.input.SetValue(value)
	wt.input.CursorEnd()
	return wt, wt.input.Focus()
}

func (wt WindowsTab) updateInput(msg tea.KeyMsg) (WindowsTab, tea.Cmd) {
	switch msg.String() {
	case "esc":
		wt.mode = inputNone
		wt.input.Blur()
		return wt, nil
	case "enter":
		value := wt.input.Value()
		mode := wt.mode
		wt.mode = inputNone
		wt.input.Blur()
		if mode == inputCreate {
			return wt.create(value)
		}
		return wt.invokeSelected("setTitle", map[string]any{"title": value})
	}

	var cmd tea.Cmd
	wt.input, cmd = wt.input.Update(msg)
	return wt, cmd
}

func (wt *WindowsTab) updateListSize() {
	// Reserve 2 lines for status bar at bottom of the tab content
	listHeight := wt.height - 2
	if listHeight < 1 {
		listHeight = 1
	}
	wt.list.SetSize(wt.sidebarWidth(), listHeight)
}

func (wt WindowsTab) sidebarWidth() int {
	// Sidebar takes ~35% of width, min 20, max 40
	sw := wt.width * 35 / 100
	if sw < 20 {
		sw = 20
	}
	if sw > 40 {
		sw = 40
	}
	return sw
}

func (wt WindowsTab) selected() (registry.Info, bool) {
	item, ok := wt.list.SelectedItem().(windowItem)
	if !ok {
		return registry.Info{}, false
	}
	return item.info, true
}

func (wt WindowsTab) notConnected() (WindowsTab, tea.Cmd) {
	wt.statusText = "daemon not connected"
	return wt, clearStatusAfter()
}

func (wt WindowsTab) create(arguments string) (WindowsTab, tea.Cmd) {
	if wt.daemon == nil {
		return wt.notConnected()
	}
	data, err := wt.daemon.CreateWindow(arguments)
	if err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		wt.statusText = fmt.Sprintf("created window %d", data.WindowID)
		wt.refreshFromDaemon()
		wt.selectID(data.WindowID)
	}
	return wt, clearStatusAfter()
}

func (wt WindowsTab) invokeSelected(method string, args map[string]any) (WindowsTab, tea.Cmd) {
	info, ok := wt.selected()
	if !ok {
		return wt, nil
	}
	if wt.daemon == nil {
		return wt.notConnected()
	}
	if _, err := wt.daemon.Invoke(int64(info.ID), method, args); err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		wt.statusText = fmt.Sprintf("%s: window %d", method, info.ID)
		wt.refreshFromDaemon()
	}
	return wt, clearStatusAfter()
}

func (wt WindowsTab) toggleMaximize() (WindowsTab, tea.Cmd) {
	info, ok := wt.selected()
	if !ok {
		return wt, nil
	}
	if wt.daemon == nil {
		return wt.notConnected()
	}
	raw, err := wt.daemon.Invoke(int64(info.ID), "isMaximized", nil)
	if err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
		return wt, clearStatusAfter()
	}
	var maximized bool
	if err := json.Unmarshal(raw, &maximized); err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
		return wt, clearStatusAfter()
	}
	if maximized {
		return wt.invokeSelected("unmaximize", nil)
	}
	return wt.invokeSelected("maximize", nil)
}

func (wt WindowsTab) closeSelected() (WindowsTab, tea.Cmd) {
	info, ok := wt.selected()
	if !ok {
		return wt, nil
	}
	if wt.daemon == nil {
		return wt.notConnected()
	}
	if err := wt.daemon.CloseWindow(int64(info.ID)); err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		wt.statusText = fmt.Sprintf("closed window %d", info.ID)
		wt.refreshFromDaemon()
	}
	return wt, clearStatusAfter()
}

func (wt *WindowsTab) refreshFromDaemon() {
	if wt.daemon == nil {
		wt.connected = false
		return
	}
	st, err := wt.daemon.GetStatus()
	if err != nil {
		wt.connected = false
		wt.windows = nil
		wt.list.SetItems(nil)
		return
	}
	windows, err := wt.daemon.ListWindows()
	if err != nil {
		wt.connected = false
		return
	}
	wt.connected = true
	wt.backend = st.Backend
	wt.screen = st.Screen
	wt.windows = windows

	items := make([]list.Item, 0, len(windows))
	for _, info := range windows {
		items = append(items, windowItem{info: info})
	}
	wt.list.SetItems(items)
}

func (wt *WindowsTab) selectID(id int64) {
	for i, info := range wt.windows {
		if int64(info.ID) == id {
			wt.list.Select(i)
			return
		}
	}
}

// View implements tea.Model.
func (wt WindowsTab) View() string {
	if !wt.ready || wt.width == 0 || wt.height == 0 {
		return ""
	}

	sidebarWidth := wt.sidebarWidth()
	detailWidth := wt.width - sidebarWidth - 3 // 3 for separator + padding
	if detailWidth < 10 {
		detailWidth = 10
	}

	sidebar := wt.list.View()
	if len(wt.windows) == 0 {
		sidebar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(" No windows\n\n press n to create one")
	}
	sidebar = lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(wt.height - 2).
		Render(sidebar)

	detail := wt.renderDetail(detailWidth)

	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.Repeat("│\n", wt.height-2))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " "+sep, detail)

	return lipgloss.JoinVertical(lipgloss.Left, columns, wt.renderTabStatus())
}

func (wt WindowsTab) renderDetail(detailWidth int) string {
	info, ok := wt.selected()
	if !ok {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Render(fmt.Sprintf(" window %d  %s", info.ID, info.Title))

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	summary := dim.Render(" " + summarizeWindow(info))
	channelLine := dim.Render(" channel: " + info.Channel)

	previewHeight := wt.height - 7 // title + summary + channel + status + padding
	if previewHeight < 5 {
		previewHeight = 5
	}
	canvasWidth := detailWidth - 2
	if canvasWidth < 5 {
		canvasWidth = 5
	}
	lines := renderFramePreview(wt.windows, int64(info.ID), wt.screen, canvasWidth, previewHeight)
	preview := lipgloss.NewStyle().
		Foreground(lipgloss.Color("247")).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, title, summary, channelLine, "", preview)
}

func (wt WindowsTab) renderTabStatus() string {
	if wt.capturing() {
		label := "new window: "
		if wt.mode == inputTitle {
			label = "title: "
		}
		return lipgloss.NewStyle().
			Width(wt.width).
			Padding(0, 1).
			Render(label + wt.input.View())
	}

	left := ""
	if wt.statusText != "" {
		left = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(wt.statusText)
	}

	right := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("n:new  enter/f:focus  s:show  h:hide  m:maximize  z:minimize  c:center  t:title  x:close  r:refresh")

	gap := wt.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(wt.width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}

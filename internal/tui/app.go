package tui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/ipc"
	"github.com/1broseidon/multiwin/internal/registry"
)

// Daemon is the slice of the IPC client the TUI drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() ([]registry.Info, error)
	CreateWindow(arguments string) (*ipc.CreateWindowData, error)
	Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error)
	CloseWindow(windowID int64) error
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	result     *config.LoadResult
	loadErr    error
	daemon     Daemon

	activeTab Tab

	windowsTab  WindowsTab
	settingsTab SettingsTab
	sourcesTab  SourcesTab

	// Save overlay
	originalConfig *config.Config
	saveOverlay    SaveOverlay

	width  int
	height int
}

func newModel(configPath string, daemon Daemon) model {
	m := model{
		configPath: configPath,
		daemon:     daemon,
		activeTab:  TabWindows,
	}

	m.loadConfig()
	if m.result != nil {
		m.originalConfig = m.result.Config.Clone()
	}

	var cfg *config.Config
	if m.result != nil {
		cfg = m.result.Config
	}
	m.windowsTab = NewWindowsTab(daemon)
	m.settingsTab = NewSettingsTab(cfg)
	m.sourcesTab = NewSourcesTab(m.result)
	return m
}

func (m *model) loadConfig() {
	var res *config.LoadResult
	var err error

	if m.configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(m.configPath)
	}
	if err != nil {
		m.loadErr = err
		return
	}
	m.result = res
}

// capturing reports whether a sub-model owns the keyboard.
func (m model) capturing() bool {
	return (m.activeTab == TabWindows && m.windowsTab.capturing()) ||
		(m.activeTab == TabSettings && m.settingsTab.editing) ||
		(m.activeTab == TabSources && m.sourcesTab.adding)
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) resize(msg tea.WindowSizeMsg) model {
	m.width = msg.Width
	m.height = msg.Height
	subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(subMsg)
	m.settingsTab, _ = m.settingsTab.Update(subMsg)
	m.sourcesTab, _ = m.sourcesTab.Update(subMsg)
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.windowsTab.Init()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Window data refreshes regardless of the visible tab.
	switch msg.(type) {
	case refreshWindowsMsg, statusMsg, clearStatusMsg:
		var cmd tea.Cmd
		m.windowsTab, cmd = m.windowsTab.Update(msg)
		return m, cmd
	}

	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.result.Config, m.configPath, m.daemon, m.windowsTab.connected)
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = m.result.Config.Clone()
			}
		case tea.WindowSizeMsg:
			m = m.resize(msg)
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		if m.result != nil && m.result.Config != nil {
			m.saveOverlay.Show(m.originalConfig, m.result.Config)
		}
		return m, nil
	}

	if m.capturing() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			return m.resize(msg), nil
		}
		return m.delegate(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabSettings
			return m, nil
		case "3":
			m.activeTab = TabSources
			return m, nil
		}

	case tea.WindowSizeMsg:
		return m.resize(msg), nil
	}

	return m.delegate(msg)
}

func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	case TabSources:
		m.sourcesTab, cmd = m.sourcesTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.windowsTab.status(), m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case m.saveOverlay.Active():
		content = m.saveOverlay.View(m.width, contentHeight)
	case m.loadErr != nil && m.activeTab != TabWindows:
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(contentHeight).
			Foreground(lipgloss.Color("196")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("config error: " + m.loadErr.Error())
	default:
		switch m.activeTab {
		case TabWindows:
			content = m.windowsTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		case TabSources:
			content = m.sourcesTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}

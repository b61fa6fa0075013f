package tui

import (
	"encoding/json"
	"errors"
	"go/build"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/ipc"
	"github.com/1broseidon/multiwin/internal/registry"
	"github.com/1broseidon/multiwin/internal/window"
)

type invocation struct {
	id     int64
	method string
	args   map[string]any
}

type fakeDaemon struct {
	windows   []registry.Info
	maximized bool
	created   []string
	invoked   []invocation
	closed    []int64
	reloads   int
	err       error
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{
		Backend:       "sim",
		WindowCount:   len(f.windows),
		DaemonRunning: true,
		Screen:        geometry.Rect{Width: 1920, Height: 1080},
	}, nil
}

func (f *fakeDaemon) ListWindows() ([]registry.Info, error) {
	return f.windows, f.err
}

func (f *fakeDaemon) CreateWindow(arguments string) (*ipc.CreateWindowData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, arguments)
	id := int64(len(f.windows) + 1)
	f.windows = append(f.windows, registry.Info{ID: window.ID(id), State: "visible"})
	return &ipc.CreateWindowData{WindowID: id, Channel: "multiwin/window/1"}, nil
}

func (f *fakeDaemon) Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.invoked = append(f.invoked, invocation{id: windowID, method: method, args: args})
	if method == "isMaximized" {
		return json.Marshal(f.maximized)
	}
	return nil, nil
}

func (f *fakeDaemon) CloseWindow(windowID int64) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, windowID)
	for i, w := range f.windows {
		if int64(w.ID) == windowID {
			f.windows = append(f.windows[:i], f.windows[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeDaemon) Reload() error {
	f.reloads++
	return f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sizedWindowsTab(d Daemon) WindowsTab {
	wt := NewWindowsTab(d)
	wt, _ = wt.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return wt
}

func twoWindows() *fakeDaemon {
	return &fakeDaemon{windows: []registry.Info{
		{ID: 1, Title: "Main", State: "visible", Frame: geometry.Rect{X: 0, Y: 1080, Width: 960, Height: 540}},
		{ID: 2, Title: "Tools", State: "hidden", Frame: geometry.Rect{X: 960, Y: 540, Width: 960, Height: 540}},
	}}
}

func TestWindowsTabLoadsFromDaemon(t *testing.T) {
	wt := sizedWindowsTab(twoWindows())

	st := wt.status()
	if !st.connected || st.backend != "sim" || st.windows != 2 {
		t.Fatalf("status = %+v", st)
	}
	info, ok := wt.selected()
	if !ok || info.ID != 1 {
		t.Fatalf("selected = %+v, %v", info, ok)
	}
	if !strings.Contains(wt.View(), "Main") {
		t.Fatal("view does not list window title")
	}
}

func TestWindowsTabDisconnected(t *testing.T) {
	wt := sizedWindowsTab(&fakeDaemon{err: errors.New("no daemon")})
	if wt.status().connected {
		t.Fatal("expected disconnected status")
	}

	wt, _ = wt.Update(runes("f"))
	if wt.statusText != "" {
		t.Fatalf("statusText = %q with no selection", wt.statusText)
	}
}

func TestWindowsTabKeyActions(t *testing.T) {
	tests := []struct {
		key    string
		method string
	}{
		{"f", "focus"},
		{"s", "show"},
		{"h", "hide"},
		{"z", "minimize"},
		{"c", "center"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			d := twoWindows()
			wt := sizedWindowsTab(d)

			wt, cmd := wt.Update(runes(tt.key))
			if cmd == nil {
				t.Fatal("expected clear-status command")
			}
			if len(d.invoked) != 1 || d.invoked[0].id != 1 || d.invoked[0].method != tt.method {
				t.Fatalf("invoked = %+v", d.invoked)
			}
			if !strings.HasPrefix(wt.statusText, tt.method+":") {
				t.Fatalf("statusText = %q", wt.statusText)
			}
		})
	}
}

func TestWindowsTabEnterFocuses(t *testing.T) {
	d := twoWindows()
	wt := sizedWindowsTab(d)

	wt, _ = wt.Update(tea.KeyMsg{Type: tea.KeyDown})
	wt, _ = wt.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(d.invoked) != 1 || d.invoked[0].id != 2 || d.invoked[0].method != "focus" {
		t.Fatalf("invoked = %+v", d.invoked)
	}
}

func TestWindowsTabToggleMaximize(t *testing.T) {
	for _, maximized := range []bool{false, true} {
		d := twoWindows()
		d.maximized = maximized
		wt := sizedWindowsTab(d)

		wt.Update(runes("m"))

		want := "maximize"
		if maximized {
			want = "unmaximize"
		}
		if len(d.invoked) != 2 || d.invoked[0].method != "isMaximized" || d.invoked[1].method != want {
			t.Fatalf("maximized=%v invoked = %+v", maximized, d.invoked)
		}
	}
}

func TestWindowsTabCreateWindow(t *testing.T) {
	d := &fakeDaemon{}
	wt := sizedWindowsTab(d)

	wt, _ = wt.Update(runes("n"))
	if !wt.capturing() {
		t.Fatal("expected input mode after n")
	}
	wt, _ = wt.Update(runes("--demo"))
	wt, _ = wt.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if wt.capturing() {
		t.Fatal("input mode still active after enter")
	}
	if len(d.created) != 1 || d.created[0] != "--demo" {
		t.Fatalf("created = %v", d.created)
	}
	if wt.statusText != "created window 1" {
		t.Fatalf("statusText = %q", wt.statusText)
	}
	if wt.status().windows != 1 {
		t.Fatalf("windows = %d", wt.status().windows)
	}
}

func TestWindowsTabSetTitle(t *testing.T) {
	d := twoWindows()
	wt := sizedWindowsTab(d)

	wt, _ = wt.Update(runes("t"))
	if wt.input.Value() != "Main" {
		t.Fatalf("input prefilled with %q", wt.input.Value())
	}
	wt, _ = wt.Update(runes("!"))
	wt.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(d.invoked) != 1 || d.invoked[0].method != "setTitle" || d.invoked[0].args["title"] != "Main!" {
		t.Fatalf("invoked = %+v", d.invoked)
	}
}

func TestWindowsTabInputEscCancels(t *testing.T) {
	d := &fakeDaemon{}
	wt := sizedWindowsTab(d)

	wt, _ = wt.Update(runes("n"))
	wt, _ = wt.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if wt.capturing() || len(d.created) != 0 {
		t.Fatalf("capturing=%v created=%v", wt.capturing(), d.created)
	}
}

func TestWindowsTabCloseWindow(t *testing.T) {
	d := twoWindows()
	wt := sizedWindowsTab(d)

	wt, _ = wt.Update(runes("x"))
	if len(d.closed) != 1 || d.closed[0] != 1 {
		t.Fatalf("closed = %v", d.closed)
	}
	if wt.status().windows != 1 {
		t.Fatalf("windows after close = %d", wt.status().windows)
	}
}

func TestWindowsTabDaemonError(t *testing.T) {
	d := twoWindows()
	wt := sizedWindowsTab(d)
	d.err = errors.New("daemon error: invalid window identifier 1")

	wt, _ = wt.Update(runes("f"))
	if !strings.Contains(wt.statusText, "invalid window identifier 1") {
		t.Fatalf("statusText = %q", wt.statusText)
	}
}

func TestWindowsTabStatusMessages(t *testing.T) {
	wt := sizedWindowsTab(&fakeDaemon{})

	wt, cmd := wt.Update(statusMsg{text: "hello"})
	if wt.statusText != "hello" || cmd == nil {
		t.Fatalf("statusText = %q, cmd = %v", wt.statusText, cmd)
	}
	wt, _ = wt.Update(clearStatusMsg{})
	if wt.statusText != "" {
		t.Fatalf("statusText = %q after clear", wt.statusText)
	}
}

func TestWindowsTabRefreshReschedules(t *testing.T) {
	d := &fakeDaemon{}
	wt := sizedWindowsTab(d)

	d.windows = []registry.Info{{ID: 7, Title: "Late"}}
	wt, cmd := wt.Update(refreshWindowsMsg{})
	if cmd == nil {
		t.Fatal("refresh did not schedule the next tick")
	}
	if info, ok := wt.selected(); !ok || info.ID != 7 {
		t.Fatalf("selected = %+v, %v", info, ok)
	}
}

func TestRenderFramePreview(t *testing.T) {
	screen := geometry.Rect{Width: 100, Height: 50}
	windows := []registry.Info{
		// Top-left quarter: top edge at y=50 in caller coordinates.
		{ID: 1, Frame: geometry.Rect{X: 0, Y: 50, Width: 50, Height: 25}},
		{ID: 2, Frame: geometry.Rect{X: 60, Y: 20, Width: 20, Height: 10}},
	}

	lines := renderFramePreview(windows, 1, screen, 20, 10)
	if len(lines) != 10 {
		t.Fatalf("lines = %d", len(lines))
	}
	at := func(y, x int) rune { return []rune(lines[y])[x] }

	if at(0, 0) != '╔' || at(9, 19) != '╝' {
		t.Fatalf("border missing:\n%s", strings.Join(lines, "\n"))
	}
	if at(1, 1) != '┏' || at(5, 10) != '┛' {
		t.Fatalf("selected frame misplaced:\n%s", strings.Join(lines, "\n"))
	}
	if at(3, 5) != '1' {
		t.Fatalf("label misplaced:\n%s", strings.Join(lines, "\n"))
	}
	if at(6, 12) != '┌' || at(8, 16) != '┘' {
		t.Fatalf("second frame misplaced:\n%s", strings.Join(lines, "\n"))
	}
}

func TestRenderFramePreviewTooSmall(t *testing.T) {
	lines := renderFramePreview(nil, 0, geometry.Rect{}, 3, 2)
	if len(lines) != 2 || lines[0] != "   " {
		t.Fatalf("lines = %q", lines)
	}
}

func TestSummarizeWindow(t *testing.T) {
	got := summarizeWindow(registry.Info{
		State:     "visible",
		Maximized: true,
		Frame:     geometry.Rect{X: 10, Y: 600, Width: 480, Height: 270},
	})
	want := "480x270 at (10, 600) | visible | maximized"
	if got != want {
		t.Fatalf("summarizeWindow = %q, want %q", got, want)
	}
}

// Filename suffixes like _windows.go are build constraints; every file in this
// package must build on every platform.
func TestNoPlatformConstrainedFiles(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if len(pkg.IgnoredGoFiles) != 0 {
		t.Fatalf("files excluded from the build: %v", pkg.IgnoredGoFiles)
	}
	found := false
	for _, f := range pkg.GoFiles {
		if f == "tab_windowlist.go" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tab_windowlist.go not in build: %v", pkg.GoFiles)
	}
}

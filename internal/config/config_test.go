package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Window.Width != 480 || cfg.Window.Height != 270 {
		t.Fatalf("default window = %vx%v", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.ShutdownTimeout() != 3*time.Second || cfg.ReapInterval() != 5*time.Second {
		t.Fatalf("durations = %v, %v", cfg.ShutdownTimeout(), cfg.ReapInterval())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend.Name != BackendX11 {
		t.Fatalf("backend = %q", res.Config.Backend.Name)
	}
	if len(res.Files) != 0 {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("log_level = %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_Sections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"log_level: debug",
		"backend:",
		"  name: sim",
		"  screen_width: 1280",
		"window:",
		"  width: 800",
		"engine:",
		"  command: /usr/bin/engine",
		"  args: [--embed]",
		"  env:",
		"    ENGINE_MODE: release",
		"  shutdown_timeout: 500ms",
		"logging:",
		"  enabled: true",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Backend.Name != BackendSim || cfg.Backend.ScreenWidth != 1280 {
		t.Fatalf("backend = %+v", cfg.Backend)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 270 {
		t.Fatalf("window = %+v", cfg.Window)
	}
	if cfg.Engine.Command != "/usr/bin/engine" || len(cfg.Engine.Args) != 1 || cfg.Engine.Env["ENGINE_MODE"] != "release" {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.ShutdownTimeout() != 500*time.Millisecond {
		t.Fatalf("ShutdownTimeout() = %v", cfg.ShutdownTimeout())
	}
	if !cfg.Logging.Enabled {
		t.Fatal("logging not enabled")
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  depth: 3\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "depth") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadFromPath_ValidationHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "backend:\n  name: wayland\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "backend.name" || verr.Source.Line != 2 {
		t.Fatalf("ValidationError = %+v", verr)
	}
	if !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("error lacks location: %v", err)
	}
}

func TestLoadFromPath_IncludeOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-engine.yaml"), "engine:\n  command: first\n  env:\n    A: \"1\"\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-engine.yaml"), "engine:\n  command: second\n  env:\n    B: \"2\"\n")
	main := filepath.Join(dir, "config.yaml")
	writeFile(t, main, "include: conf.d\nwindow:\n  height: 300\nengine:\n  env:\n    B: \"3\"\n")

	res, err := LoadFromPath(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Engine.Command != "second" {
		t.Fatalf("command = %q, want second", cfg.Engine.Command)
	}
	if cfg.Engine.Env["A"] != "1" || cfg.Engine.Env["B"] != "3" {
		t.Fatalf("env = %v", cfg.Engine.Env)
	}
	if cfg.Window.Height != 300 {
		t.Fatalf("height = %v", cfg.Window.Height)
	}
	if len(res.Files) != 3 || filepath.Base(res.Files[2]) != "config.yaml" {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_DaemonHotkeysMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keys.yaml"), "daemon:\n  new_window_hotkey: Mod4-Shift-n\n  focus_next_hotkey: Mod4-Tab\n")
	main := filepath.Join(dir, "config.yaml")
	writeFile(t, main, "include: keys.yaml\ndaemon:\n  focus_next_hotkey: Mod1-grave\n")

	res, err := LoadFromPath(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := res.Config.Daemon
	if d.NewWindowHotkey != "Mod4-Shift-n" || d.FocusNextHotkey != "Mod1-grave" || d.ReapInterval != "5s" {
		t.Fatalf("daemon = %+v", d)
	}

	value, src, err := Explain(res, "daemon.focus_next_hotkey")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "Mod1-grave" || filepath.Base(src.File) != "config.yaml" {
		t.Fatalf("explain = %v from %+v", value, src)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "window:\n  width: 640\nengine:\n  env:\n    MODE: x\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	v, src, err := Explain(res, "window.width")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if v != 640.0 || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("window.width = %v from %+v", v, src)
	}

	v, src, err = Explain(res, "window.height")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if v != 270.0 || src.Kind != SourceDefault {
		t.Fatalf("window.height = %v from %+v", v, src)
	}

	if v, _, err := Explain(res, "engine.env.MODE"); err != nil || v != "x" {
		t.Fatalf("engine.env.MODE = %v, %v", v, err)
	}
	if _, _, err := Explain(res, "window.depth"); err == nil {
		t.Fatal("expected unknown path error")
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Source{Kind: SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{Source{Kind: SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{Source{Kind: SourceFile}, "file"},
		{Source{Kind: SourceDefault, Name: "defaults"}, "default:defaults"},
		{Source{Kind: SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	cfg := DefaultConfig()
	cfg.Backend.Name = BackendSim
	cfg.Engine.Command = "engine"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend.Name != BackendSim || res.Config.Engine.Command != "engine" {
		t.Fatalf("reloaded = %+v", res.Config)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"args without command", func(c *Config) { c.Engine.Args = []string{"x"} }, "engine.args"},
		{"bad env", func(c *Config) { c.Engine.Env = map[string]string{"A=B": "c"} }, "engine.env"},
		{"bad timeout", func(c *Config) { c.Engine.ShutdownTimeout = "soon" }, "engine.shutdown_timeout"},
		{"negative interval", func(c *Config) { c.Daemon.ReapInterval = "-1s" }, "daemon.reap_interval"},
		{"logging level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("Validate() = %v, want path %q", err, tt.path)
			}
		})
	}
}

func TestFramesDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	dir, err := cfg.FramesDir()
	if err != nil {
		t.Fatalf("FramesDir: %v", err)
	}
	if dir != filepath.Join(home, ".config", "multiwin", "frames") {
		t.Fatalf("FramesDir() = %q", dir)
	}

	cfg.Frames.Dir = "~/frames"
	if dir, _ := cfg.FramesDir(); dir != filepath.Join(home, "frames") {
		t.Fatalf("FramesDir() = %q", dir)
	}
}

func TestGetLoggingConfigDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	lc := DefaultConfig().GetLoggingConfig()
	if lc.File != "/home/tester/.local/share/multiwin/actions.log" {
		t.Fatalf("File = %q", lc.File)
	}
	if lc.MaxSizeMB != 10 || lc.MaxFiles != 3 || lc.PreviewLength != 50 || lc.Level != "info" {
		t.Fatalf("defaults = %+v", lc)
	}
}

func TestDiffSplitsReloadable(t *testing.T) {
	old := DefaultConfig()
	old.Engine.Env = map[string]string{"MODE": "dev", "GONE": "1"}
	cur := old.Clone()
	cur.LogLevel = "debug"
	cur.Window.Width = 800
	cur.Engine.Args = []string{"--verbose"}
	cur.Engine.Env["MODE"] = "prod"
	delete(cur.Engine.Env, "GONE")
	cur.Engine.Env["NEW"] = "x"

	got := Diff(old, cur)
	want := []struct {
		path       string
		reloadable bool
	}{
		{"engine.args", false},
		{"engine.env.GONE", false},
		{"engine.env.MODE", false},
		{"engine.env.NEW", false},
		{"log_level", true},
		{"window.width", true},
	}
	if len(got) != len(want) {
		t.Fatalf("Diff() = %+v", got)
	}
	for i, w := range want {
		if got[i].Path != w.path || got[i].Reloadable != w.reloadable {
			t.Errorf("change %d = %+v, want %s reloadable=%v", i, got[i], w.path, w.reloadable)
		}
	}
	if s := got[1].String(); s != "engine.env.GONE: 1 -> (unset)" {
		t.Errorf("String() = %q", s)
	}
	if len(Diff(old, old.Clone())) != 0 {
		t.Fatal("clone differs from original")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := DefaultConfig()
	c.Engine.Args = []string{"a"}
	c.Engine.Env = map[string]string{"K": "v"}

	d := c.Clone()
	d.Engine.Args[0] = "b"
	d.Engine.Env["K"] = "w"
	if c.Engine.Args[0] != "a" || c.Engine.Env["K"] != "v" {
		t.Fatalf("clone shares storage: %+v", c.Engine)
	}
	if (*Config)(nil).Clone() != nil {
		t.Fatal("nil clone")
	}
}

func TestLoadFromPath_SharedIncludeMergedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "window:\n  width: 500\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: base.yaml\nwindow:\n  width: 600\n")
	main := filepath.Join(dir, "config.yaml")
	writeFile(t, main, "include:\n  - a.yaml\n  - base.yaml\n")

	res, err := LoadFromPath(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// base.yaml was already merged through a.yaml, so a.yaml's width stands.
	if res.Config.Window.Width != 600 {
		t.Fatalf("width = %v", res.Config.Window.Width)
	}
	if len(res.Files) != 3 {
		t.Fatalf("files = %v", res.Files)
	}
	if _, src, _ := Explain(res, "window.width"); filepath.Base(src.File) != "a.yaml" {
		t.Fatalf("window.width source = %+v", src)
	}
}

func TestLoadFromPath_MissingIncludeReportsLocation(t *testing.T) {
	main := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, main, "log_level: info\ninclude: nowhere.yaml\n")

	_, err := LoadFromPath(main)
	if err == nil || !strings.Contains(err.Error(), "config.yaml:2:") || !strings.Contains(err.Error(), `include "nowhere.yaml"`) {
		t.Fatalf("error = %v", err)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendX11 = "x11"
	BackendSim = "sim"
)

// BackendConfig selects the window system.
type BackendConfig struct {
	// Name is "x11" or "sim"
	Name string `yaml:"name"`
	// Display overrides $DISPLAY for the x11 backend
	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`
	// ScreenWidth and ScreenHeight size the simulated screen
	ScreenWidth  float64 `yaml:"screen_width,omitempty"`
	ScreenHeight float64 `yaml:"screen_height,omitempty"`
}

// WindowConfig sets the content size of new windows.
type WindowConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// EngineConfig describes the UI engine launched inside every window. An
// empty command hosts no engine.
type EngineConfig struct {
	Command         string            `yaml:"command,omitempty"`
	Args            []string          `yaml:"args,omitempty"`
	Env             map[string]string `yaml:"env,omitempty"`
	ShutdownTimeout string            `yaml:"shutdown_timeout"`
}

// DaemonConfig tunes the background daemon.
type DaemonConfig struct {
	// ReapInterval is how often windows destroyed behind the daemon's back are reaped
	ReapInterval string `yaml:"reap_interval"`
	// NewWindowHotkey creates a window when pressed (e.g. "Mod4-Shift-n")
	NewWindowHotkey string `yaml:"new_window_hotkey,omitempty"`
	// FocusNextHotkey cycles focus through open windows
	FocusNextHotkey string `yaml:"focus_next_hotkey,omitempty"`
}

// FramesConfig locates persisted window frames.
type FramesConfig struct {
	// Dir defaults to ~/.config/multiwin/frames
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig configures window action logging.
type LoggingConfig struct {
	// Enabled turns window action logging on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/multiwin/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
	// IncludeContent logs window creation arguments (default: false)
	IncludeContent bool `yaml:"include_content,omitempty"`
	// PreviewLength is the number of characters to preview in log (default: 50)
	PreviewLength int `yaml:"preview_length,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Backend  BackendConfig `yaml:"backend"`
	Window   WindowConfig  `yaml:"window"`
	Engine   EngineConfig  `yaml:"engine"`
	Daemon   DaemonConfig  `yaml:"daemon"`
	Frames   FramesConfig  `yaml:"frames,omitempty"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Backend: BackendConfig{
			Name: BackendX11,
		},
		Window: WindowConfig{
			Width:  480,
			Height: 270,
		},
		Engine: EngineConfig{
			ShutdownTimeout: "3s",
		},
		Daemon: DaemonConfig{
			ReapInterval: "5s",
		},
	}
}

// ShutdownTimeout returns the parsed engine shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// ReapInterval returns the parsed reconciler interval.
func (c *Config) ReapInterval() time.Duration {
	d, err := time.ParseDuration(c.Daemon.ReapInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// FramesDir returns the frame store directory with ~ expanded.
func (c *Config) FramesDir() (string, error) {
	if strings.TrimSpace(c.Frames.Dir) == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "multiwin", "frames"), nil
	}
	return expandHome(c.Frames.Dir)
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/multiwin/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.PreviewLength == 0 {
		cfg.PreviewLength = 50
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.Backend.Name {
	case BackendX11, BackendSim:
	default:
		return &ValidationError{Path: "backend.name", Err: fmt.Errorf("backend.name must be one of: x11, sim")}
	}
	if c.Backend.ScreenWidth < 0 || c.Backend.ScreenHeight < 0 {
		return &ValidationError{Path: "backend", Err: fmt.Errorf("screen size must be >= 0")}
	}
	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.Engine.Command == "" && len(c.Engine.Args) > 0 {
		return &ValidationError{Path: "engine.args", Err: fmt.Errorf("args require engine.command")}
	}
	for key := range c.Engine.Env {
		if strings.TrimSpace(key) == "" || strings.Contains(key, "=") {
			return &ValidationError{Path: "engine.env", Err: fmt.Errorf("invalid variable name %q", key)}
		}
	}
	if err := validateDuration(c.Engine.ShutdownTimeout); err != nil {
		return &ValidationError{Path: "engine.shutdown_timeout", Err: err}
	}
	if err := validateDuration(c.Daemon.ReapInterval); err != nil {
		return &ValidationError{Path: "daemon.reap_interval", Err: err}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

package config

import (
	"fmt"
	"sort"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	backend.name
//	backend.display
//	window.width
//	engine.command
//	engine.env.<NAME>
//	daemon.reap_interval
//	frames.dir
//	logging.enabled
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every scalar path Explain accepts, sorted.
func Paths() []string {
	out := make([]string, 0, len(fieldGetters))
	for p := range fieldGetters {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var fieldGetters = map[string]func(*Config) any{
	"log_level":                func(c *Config) any { return c.LogLevel },
	"backend.name":             func(c *Config) any { return c.Backend.Name },
	"backend.display":          func(c *Config) any { return c.Backend.Display },
	"backend.xauthority":       func(c *Config) any { return c.Backend.XAuthority },
	"backend.screen_width":     func(c *Config) any { return c.Backend.ScreenWidth },
	"backend.screen_height":    func(c *Config) any { return c.Backend.ScreenHeight },
	"window.width":             func(c *Config) any { return c.Window.Width },
	"window.height":            func(c *Config) any { return c.Window.Height },
	"engine.command":           func(c *Config) any { return c.Engine.Command },
	"engine.args":              func(c *Config) any { return c.Engine.Args },
	"engine.env":               func(c *Config) any { return c.Engine.Env },
	"engine.shutdown_timeout":  func(c *Config) any { return c.Engine.ShutdownTimeout },
	"daemon.reap_interval":     func(c *Config) any { return c.Daemon.ReapInterval },
	"daemon.new_window_hotkey": func(c *Config) any { return c.Daemon.NewWindowHotkey },
	"daemon.focus_next_hotkey": func(c *Config) any { return c.Daemon.FocusNextHotkey },
	"frames.dir":               func(c *Config) any { return c.Frames.Dir },
	"logging.enabled":          func(c *Config) any { return c.Logging.Enabled },
	"logging.level":            func(c *Config) any { return c.Logging.Level },
	"logging.file":             func(c *Config) any { return c.Logging.File },
	"logging.max_size_mb":      func(c *Config) any { return c.Logging.MaxSizeMB },
	"logging.max_files":        func(c *Config) any { return c.Logging.MaxFiles },
	"logging.include_content":  func(c *Config) any { return c.Logging.IncludeContent },
	"logging.preview_length":   func(c *Config) any { return c.Logging.PreviewLength },
}

func lookupValue(cfg *Config, path string) (any, error) {
	if get, ok := fieldGetters[path]; ok {
		return get(cfg), nil
	}
	if name, ok := strings.CutPrefix(path, "engine.env."); ok && name != "" {
		v, ok := cfg.Engine.Env[name]
		if !ok {
			return nil, fmt.Errorf("engine.env has no variable %q", name)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown path %q", path)
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawBackendConfig struct {
	Name         *string  `yaml:"name"`
	Display      *string  `yaml:"display"`
	XAuthority   *string  `yaml:"xauthority"`
	ScreenWidth  *float64 `yaml:"screen_width"`
	ScreenHeight *float64 `yaml:"screen_height"`
}

type RawWindowConfig struct {
	Width  *float64 `yaml:"width"`
	Height *float64 `yaml:"height"`
}

type RawEngineConfig struct {
	Command         *string           `yaml:"command"`
	Args            []string          `yaml:"args"`
	Env             map[string]string `yaml:"env"`
	ShutdownTimeout *string           `yaml:"shutdown_timeout"`
}

type RawDaemonConfig struct {
	ReapInterval    *string `yaml:"reap_interval"`
	NewWindowHotkey *string `yaml:"new_window_hotkey"`
	FocusNextHotkey *string `yaml:"focus_next_hotkey"`
}

type RawFramesConfig struct {
	Dir *string `yaml:"dir"`
}

type RawLoggingConfig struct {
	Enabled        *bool   `yaml:"enabled"`
	Level          *string `yaml:"level"`
	File           *string `yaml:"file"`
	MaxSizeMB      *int    `yaml:"max_size_mb"`
	MaxFiles       *int    `yaml:"max_files"`
	IncludeContent *bool   `yaml:"include_content"`
	PreviewLength  *int    `yaml:"preview_length"`
}

// RawConfig is one config file as written. Unset fields are nil so later
// files only override what they mention.
type RawConfig struct {
	Include  IncludeList       `yaml:"include"`
	LogLevel *string           `yaml:"log_level"`
	Backend  *RawBackendConfig `yaml:"backend"`
	Window   *RawWindowConfig  `yaml:"window"`
	Engine   *RawEngineConfig  `yaml:"engine"`
	Daemon   *RawDaemonConfig  `yaml:"daemon"`
	Frames   *RawFramesConfig  `yaml:"frames"`
	Logging  *RawLoggingConfig `yaml:"logging"`
}

func pick[T any](base, override *T) *T {
	if override != nil {
		return override
	}
	return base
}

// merge returns r with every field set in o applied on top.
func (r RawConfig) merge(o RawConfig) RawConfig {
	out := r
	out.Include = nil
	out.LogLevel = pick(r.LogLevel, o.LogLevel)

	if o.Backend != nil {
		b := RawBackendConfig{}
		if r.Backend != nil {
			b = *r.Backend
		}
		b.Name = pick(b.Name, o.Backend.Name)
		b.Display = pick(b.Display, o.Backend.Display)
		b.XAuthority = pick(b.XAuthority, o.Backend.XAuthority)
		b.ScreenWidth = pick(b.ScreenWidth, o.Backend.ScreenWidth)
		b.ScreenHeight = pick(b.ScreenHeight, o.Backend.ScreenHeight)
		out.Backend = &b
	}
	if o.Window != nil {
		w := RawWindowConfig{}
		if r.Window != nil {
			w = *r.Window
		}
		w.Width = pick(w.Width, o.Window.Width)
		w.Height = pick(w.Height, o.Window.Height)
		out.Window = &w
	}
	if o.Engine != nil {
		e := RawEngineConfig{}
		if r.Engine != nil {
			e = *r.Engine
		}
		e.Command = pick(e.Command, o.Engine.Command)
		if o.Engine.Args != nil {
			e.Args = o.Engine.Args
		}
		if o.Engine.Env != nil {
			env := make(map[string]string, len(e.Env)+len(o.Engine.Env))
			for k, v := range e.Env {
				env[k] = v
			}
			for k, v := range o.Engine.Env {
				env[k] = v
			}
			e.Env = env
		}
		e.ShutdownTimeout = pick(e.ShutdownTimeout, o.Engine.ShutdownTimeout)
		out.Engine = &e
	}
	if o.Daemon != nil {
		d := RawDaemonConfig{}
		if r.Daemon != nil {
			d = *r.Daemon
		}
		d.ReapInterval = pick(d.ReapInterval, o.Daemon.ReapInterval)
		d.NewWindowHotkey = pick(d.NewWindowHotkey, o.Daemon.NewWindowHotkey)
		d.FocusNextHotkey = pick(d.FocusNextHotkey, o.Daemon.FocusNextHotkey)
		out.Daemon = &d
	}
	if o.Frames != nil {
		f := RawFramesConfig{}
		if r.Frames != nil {
			f = *r.Frames
		}
		f.Dir = pick(f.Dir, o.Frames.Dir)
		out.Frames = &f
	}
	if o.Logging != nil {
		l := RawLoggingConfig{}
		if r.Logging != nil {
			l = *r.Logging
		}
		l.Enabled = pick(l.Enabled, o.Logging.Enabled)
		l.Level = pick(l.Level, o.Logging.Level)
		l.File = pick(l.File, o.Logging.File)
		l.MaxSizeMB = pick(l.MaxSizeMB, o.Logging.MaxSizeMB)
		l.MaxFiles = pick(l.MaxFiles, o.Logging.MaxFiles)
		l.IncludeContent = pick(l.IncludeContent, o.Logging.IncludeContent)
		l.PreviewLength = pick(l.PreviewLength, o.Logging.PreviewLength)
		out.Logging = &l
	}
	return out
}

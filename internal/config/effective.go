package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	set(&cfg.LogLevel, raw.LogLevel)

	if b := raw.Backend; b != nil {
		set(&cfg.Backend.Name, b.Name)
		set(&cfg.Backend.Display, b.Display)
		set(&cfg.Backend.XAuthority, b.XAuthority)
		set(&cfg.Backend.ScreenWidth, b.ScreenWidth)
		set(&cfg.Backend.ScreenHeight, b.ScreenHeight)
	}
	if w := raw.Window; w != nil {
		set(&cfg.Window.Width, w.Width)
		set(&cfg.Window.Height, w.Height)
	}
	if e := raw.Engine; e != nil {
		set(&cfg.Engine.Command, e.Command)
		if e.Args != nil {
			cfg.Engine.Args = append([]string(nil), e.Args...)
		}
		if e.Env != nil {
			cfg.Engine.Env = make(map[string]string, len(e.Env))
			for k, v := range e.Env {
				cfg.Engine.Env[k] = v
			}
		}
		set(&cfg.Engine.ShutdownTimeout, e.ShutdownTimeout)
	}
	if d := raw.Daemon; d != nil {
		set(&cfg.Daemon.ReapInterval, d.ReapInterval)
		set(&cfg.Daemon.NewWindowHotkey, d.NewWindowHotkey)
		set(&cfg.Daemon.FocusNextHotkey, d.FocusNextHotkey)
	}
	if f := raw.Frames; f != nil {
		set(&cfg.Frames.Dir, f.Dir)
	}
	if l := raw.Logging; l != nil {
		set(&cfg.Logging.Enabled, l.Enabled)
		set(&cfg.Logging.Level, l.Level)
		set(&cfg.Logging.File, l.File)
		set(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		set(&cfg.Logging.MaxFiles, l.MaxFiles)
		set(&cfg.Logging.IncludeContent, l.IncludeContent)
		set(&cfg.Logging.PreviewLength, l.PreviewLength)
	}
	return cfg, nil
}

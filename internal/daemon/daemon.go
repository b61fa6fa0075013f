package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/1broseidon/multiwin/internal/actionlog"
	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/framestore"
	"github.com/1broseidon/multiwin/internal/hotkeys"
	"github.com/1broseidon/multiwin/internal/ipc"
	"github.com/1broseidon/multiwin/internal/mainloop"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/registry"
	"github.com/1broseidon/multiwin/internal/runtimepath"
	"github.com/1broseidon/multiwin/internal/surface"
	"github.com/1broseidon/multiwin/internal/window"
)

// ErrAlreadyRunning is returned when the pid file names a live process.
var ErrAlreadyRunning = errors.New("daemon already running")

// Options configures a Daemon.
type Options struct {
	Config *config.Config
	// ConfigPath is re-read on SIGHUP. Empty means the default path.
	ConfigPath string
	// SocketPath and PIDPath default to the runtime directory.
	SocketPath string
	PIDPath    string
	// LogOutput receives the daemon's structured log. Defaults to stderr.
	LogOutput io.Writer
}

// nativeBackend pairs a backend with its event pump.
type nativeBackend struct {
	platform.Backend
	// eventLoop blocks while dispatching native events; nil when the
	// backend has none.
	eventLoop  func()
	disconnect func()
}

// Daemon owns the main loop and every long-lived component around the
// window registry.
type Daemon struct {
	configPath string
	pidPath    string
	level      *slog.LevelVar
	logger     *slog.Logger

	loop       *mainloop.Loop
	backend    nativeBackend
	registry   *registry.Registry
	server     *ipc.Server
	reconciler *Reconciler
	actions    *actionlog.Logger

	// cfg is the config the daemon runs with. Reload updates only its
	// reloadable fields.
	cfgMu sync.Mutex
	cfg   *config.Config

	// lastFocused is the window the focus hotkey raised last. Main loop only.
	lastFocused window.ID
}

// New wires a daemon from cfg without starting anything.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.LogLevel))
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	pidPath := opts.PIDPath
	if pidPath == "" {
		var err error
		pidPath, err = runtimepath.PIDPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve pid file path: %w", err)
		}
	}

	framesDir, err := cfg.FramesDir()
	if err != nil {
		return nil, err
	}
	frames := framestore.New(framesDir)

	loop := mainloop.New()
	backend, err := openBackend(cfg.Backend, loop, frames)
	if err != nil {
		return nil, err
	}

	actions, err := actionlog.New(ActionLogConfig(cfg))
	if err != nil {
		logger.Warn("action log disabled", "error", err)
		actions = nil
	}

	reg := registry.New(registry.Options{
		Backend:   backend,
		Loop:      loop,
		Surfaces:  SurfaceFactory(cfg),
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Logger:    logger.With("component", "registry"),
		Observers: []registry.Observer{actions},
	})

	d := &Daemon{
		configPath: opts.ConfigPath,
		pidPath:    pidPath,
		level:      level,
		logger:     logger,
		loop:       loop,
		backend:    backend,
		registry:   reg,
		actions:    actions,
		cfg:        cfg.Clone(),
	}

	d.server, err = ipc.NewServer(ipc.ServerConfig{
		SocketPath:  opts.SocketPath,
		BackendName: backend.Name(),
		Windows:     reg,
		Loop:        loop,
		Actions:     actions,
		Screen:      backend.ScreenFrame,
		Reload:      d.Reload,
	})
	if err != nil {
		backend.disconnect()
		return nil, err
	}

	if cfg.Daemon.NewWindowHotkey != "" || cfg.Daemon.FocusNextHotkey != "" {
		h, err := hotkeys.NewHandler(backend.Backend)
		if err != nil {
			logger.Warn("hotkeys disabled", "backend", backend.Name(), "error", err)
		} else {
			d.bindHotkeys(h, cfg.Daemon)
		}
	}

	d.reconciler = NewReconciler(ReconcilerConfig{
		Interval: cfg.ReapInterval(),
		Logger:   logger.With("component", "reconciler"),
	}, loop, reg)

	return d, nil
}

func openBackend(cfg config.BackendConfig, loop *mainloop.Loop, frames platform.FrameStore) (nativeBackend, error) {
	switch cfg.Name {
	case config.BackendSim:
		return nativeBackend{
			Backend:    platform.NewSimBackend(cfg.ScreenWidth, cfg.ScreenHeight, frames),
			disconnect: func() {},
		}, nil
	case config.BackendX11, "":
		return openX11(cfg, loop, frames)
	default:
		return nativeBackend{}, fmt.Errorf("unknown backend %q", cfg.Name)
	}
}

// SurfaceFactory builds the content surface factory for cfg: one engine
// process per window when an engine command is configured, otherwise an
// in-process surface.
func SurfaceFactory(cfg *config.Config) surface.Factory {
	if cfg.Engine.Command == "" {
		return surface.NullFactory()
	}
	return surface.ProcessFactory(surface.ProcessConfig{
		Command:         cfg.Engine.Command,
		Args:            cfg.Engine.Args,
		Env:             cfg.Engine.Env,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	})
}

// ActionLogConfig maps the logging section onto the action logger.
func ActionLogConfig(cfg *config.Config) actionlog.Config {
	lc := cfg.GetLoggingConfig()
	return actionlog.Config{
		Enabled:        lc.Enabled,
		Level:          actionlog.ParseLogLevel(lc.Level),
		FilePath:       lc.File,
		MaxSizeMB:      lc.MaxSizeMB,
		MaxFiles:       lc.MaxFiles,
		IncludeContent: lc.IncludeContent,
		PreviewLength:  lc.PreviewLength,
	}
}

// ParseLevel maps a config log level onto slog. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Registry exposes the daemon's window registry. Calls into it must run on
// the main loop.
func (d *Daemon) Registry() *registry.Registry { return d.registry }

// Loop exposes the daemon's main loop.
func (d *Daemon) Loop() *mainloop.Loop { return d.loop }

// SocketPath returns the IPC socket the daemon serves.
func (d *Daemon) SocketPath() string { return d.server.SocketPath() }

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// native event loop exits. The main loop runs on the calling goroutine.
func (d *Daemon) Run(ctx context.Context) error {
	if err := writePIDFile(d.pidPath); err != nil {
		d.backend.disconnect()
		return err
	}
	defer os.Remove(d.pidPath)

	if err := d.server.Start(); err != nil {
		d.backend.disconnect()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.reconciler.Run(ctx)
	go d.handleSignals(ctx, cancel)

	if d.backend.eventLoop != nil {
		go func() {
			d.backend.eventLoop()
			d.logger.Warn("native event loop exited")
			cancel()
		}()
	}

	d.logger.Info("multiwin daemon started",
		"backend", d.backend.Name(),
		"socket", d.server.SocketPath(),
		"pid", os.Getpid())

	d.loop.Run(ctx)

	d.logger.Info("shutting down multiwin daemon", "windows", d.registry.Len())
	d.server.Stop()
	// The loop has stopped, so this goroutine is the only one touching windows.
	d.registry.CloseAll()
	d.backend.disconnect()
	if err := d.actions.Close(); err != nil {
		d.logger.Warn("failed to close action log", "error", err)
	}
	return nil
}

func (d *Daemon) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				d.logger.Info("received SIGHUP, reloading config")
				if err := d.Reload(); err != nil {
					d.logger.Error("config reload failed", "error", err)
				}
			default:
				d.logger.Info("received signal", "signal", sig.String())
				cancel()
				return
			}
		}
	}
}

// Reload re-reads the configuration and applies the settings that can change
// at runtime: the log level and the size of windows created afterwards.
func (d *Daemon) Reload() error {
	var (
		res *config.LoadResult
		err error
	)
	if d.configPath != "" {
		res, err = config.LoadFromPath(d.configPath)
	} else {
		res, err = config.LoadWithSources()
	}
	if err != nil {
		return err
	}
	cfg := res.Config

	d.cfgMu.Lock()
	for _, c := range config.Diff(d.cfg, cfg) {
		if !c.Reloadable {
			d.logger.Warn("config change needs a daemon restart", "path", c.Path)
		}
	}
	d.cfg.LogLevel = cfg.LogLevel
	d.cfg.Window = cfg.Window
	d.cfgMu.Unlock()

	d.level.Set(ParseLevel(cfg.LogLevel))
	d.loop.Post(func() {
		d.registry.SetDefaultSize(cfg.Window.Width, cfg.Window.Height)
	})
	d.logger.Info("config reloaded",
		"log_level", cfg.LogLevel,
		"window_width", cfg.Window.Width,
		"window_height", cfg.Window.Height)
	return nil
}

// writePIDFile records the current pid at path, refusing to overwrite the
// pid of a live process.
func writePIDFile(path string) error {
	if pid, ok := readPID(path); ok && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

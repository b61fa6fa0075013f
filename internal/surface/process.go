package surface

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// Environment variables handed to the engine process.
const (
	EnvWindowID     = "MULTIWIN_WINDOW_ID"
	EnvNativeWindow = "MULTIWIN_NATIVE_WINDOW"
)

// ProcessConfig describes the engine executable.
type ProcessConfig struct {
	Command         string
	Args            []string
	Env             map[string]string
	ShutdownTimeout time.Duration
}

// Process runs the UI engine as a child process that embeds itself into the
// native window named by MULTIWIN_NATIVE_WINDOW.
type Process struct {
	cfg  ProcessConfig
	spec Spec

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// NewProcess returns an unstarted engine process for spec.
func NewProcess(cfg ProcessConfig, spec Spec) *Process {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 3 * time.Second
	}
	return &Process{cfg: cfg, spec: spec}
}

// ProcessFactory returns a Factory that launches cfg for every window.
func ProcessFactory(cfg ProcessConfig) Factory {
	return func(spec Spec) Surface { return NewProcess(cfg, spec) }
}

// Start launches the engine with the configured args followed by entrypointArgs.
func (p *Process) Start(entrypointArgs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return ErrAlreadyStarted
	}
	if p.cfg.Command == "" {
		return fmt.Errorf("engine command is not configured")
	}

	args := append(append([]string(nil), p.cfg.Args...), entrypointArgs...)
	cmd := exec.Command(p.cfg.Command, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvWindowID+"="+strconv.FormatInt(p.spec.WindowID, 10),
		EnvNativeWindow+"="+strconv.FormatUint(uint64(p.spec.NativeWindow), 10),
	)
	for k, v := range p.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine %q: %w", p.cfg.Command, err)
	}

	p.cmd = cmd
	p.done = make(chan struct{})
	go func(done chan struct{}) {
		err := cmd.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(done)
	}(p.done)
	return nil
}

// Shutdown sends SIGTERM and escalates to SIGKILL after the shutdown timeout.
func (p *Process) Shutdown() error {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop engine: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(p.cfg.ShutdownTimeout):
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill engine: %w", err)
	}
	<-done
	return nil
}

// Running reports whether the engine process is alive.
func (p *Process) Running() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

package surface

import (
	"errors"
	"strconv"
	"sync"
)

// ErrAlreadyStarted is returned when Start is called on a running surface.
var ErrAlreadyStarted = errors.New("surface already started")

// EntrypointName is the first entrypoint argument every window engine receives.
const EntrypointName = "multi_window"

// Surface is the UI-engine instance hosted inside one native window.
type Surface interface {
	// Start boots the engine with the given entrypoint arguments.
	Start(entrypointArgs []string) error
	// Shutdown stops the engine. Calling it again is a no-op.
	Shutdown() error
	Running() bool
}

// Spec describes the window a surface is created for.
type Spec struct {
	WindowID     int64
	NativeWindow uint32
}

// Factory builds the surface for one window.
type Factory func(spec Spec) Surface

// EntrypointArgs builds the engine arguments for window id. arguments is
// forwarded verbatim.
func EntrypointArgs(id int64, arguments string) []string {
	return []string{EntrypointName, strconv.FormatInt(id, 10), arguments}
}

// Null is a surface without an engine. It backs headless daemons and tests.
type Null struct {
	mu        sync.Mutex
	args      []string
	running   bool
	shutdowns int
	startErr  error
}

// NewNull returns a surface that records its lifecycle.
func NewNull() *Null {
	return &Null{}
}

// NullFactory returns a Factory producing Null surfaces.
func NullFactory() Factory {
	return func(Spec) Surface { return NewNull() }
}

// FailStart makes the next Start return err.
func (n *Null) FailStart(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startErr = err
}

func (n *Null) Start(entrypointArgs []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.startErr; err != nil {
		n.startErr = nil
		return err
	}
	if n.running {
		return ErrAlreadyStarted
	}
	n.args = append([]string(nil), entrypointArgs...)
	n.running = true
	return nil
}

func (n *Null) Shutdown() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return nil
	}
	n.running = false
	n.shutdowns++
	return nil
}

func (n *Null) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// Args returns the entrypoint arguments Start received.
func (n *Null) Args() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.args...)
}

// Shutdowns counts effective shutdowns.
func (n *Null) Shutdowns() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shutdowns
}

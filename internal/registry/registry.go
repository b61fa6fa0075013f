package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/surface"
	"github.com/1broseidon/multiwin/internal/window"
)

// ErrInvalidIdentifier is returned for ids that are not registered.
var ErrInvalidIdentifier = errors.New("invalid window identifier")

// FirstID is the first id handed out. Id 0 belongs to the host's main window.
const FirstID window.ID = 1

// Observer is told about registrations and removals.
type Observer interface {
	WindowCreated(id window.ID, arguments string)
	WindowClosed(id window.ID)
}

// CreatedHook runs once a window is fully built, before it is registered.
// It is where embedders attach extra handlers to the window's channel.
type CreatedHook func(inst *window.Instance, ch *channel.Channel)

// Options configures a Registry.
type Options struct {
	Backend  platform.Backend
	Loop     window.Poster
	Surfaces surface.Factory
	Width    float64
	Height   float64
	Logger   *slog.Logger

	OnWindowCreated CreatedHook
	Observers       []Observer
}

// Info is a snapshot of one registered window.
type Info struct {
	ID        window.ID         `json:"id"`
	NativeID  platform.WindowID `json:"native_id"`
	Channel   string            `json:"channel"`
	Arguments string            `json:"arguments"`
	Title     string            `json:"title"`
	State     string            `json:"state"`
	Frame     geometry.Rect     `json:"frame"`
	Maximized bool              `json:"maximized"`
}

type entry struct {
	inst *window.Instance
	ch   *channel.Channel
}

// Registry owns the id to window mapping. It is the only code that adds or
// removes ids. Create, Invoke and Close must run on the main loop.
type Registry struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	nextID    window.ID
	windows   map[window.ID]entry
	observers []Observer
}

// New creates an empty registry.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		opts:      opts,
		logger:    logger,
		nextID:    FirstID,
		windows:   make(map[window.ID]entry),
		observers: append([]Observer(nil), opts.Observers...),
	}
}

// AddObserver registers o for future events.
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

func (r *Registry) snapshotObservers() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Observer(nil), r.observers...)
}

// SetDefaultSize changes the content size used by later Create calls.
// Existing windows keep their frames.
func (r *Registry) SetDefaultSize(width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.Width = width
	r.opts.Height = height
}

func (r *Registry) defaultSize() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Width, r.opts.Height
}

func (r *Registry) allocate() window.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

// Create builds a window for arguments and registers it. Ids are never
// reused, including ids whose construction failed.
func (r *Registry) Create(arguments string) (window.ID, error) {
	id := r.allocate()
	width, height := r.defaultSize()

	inst, err := window.New(window.Options{
		ID:        id,
		Arguments: arguments,
		Width:     width,
		Height:    height,
		Backend:   r.opts.Backend,
		Loop:      r.opts.Loop,
		Surfaces:  r.opts.Surfaces,
		Delegate:  r,
	})
	if err != nil {
		r.logger.Error("window creation failed", "window_id", id, "error", err)
		return 0, err
	}

	ch := channel.New(id, inst.Controller())
	if hook := r.opts.OnWindowCreated; hook != nil {
		hook(inst, ch)
	}

	r.mu.Lock()
	r.windows[id] = entry{inst: inst, ch: ch}
	r.mu.Unlock()

	r.logger.Info("window created",
		"window_id", id,
		"native_id", inst.NativeID(),
		"channel", ch.Name())
	for _, o := range r.snapshotObservers() {
		o.WindowCreated(id, arguments)
	}
	return id, nil
}

func (r *Registry) lookup(id window.ID) (entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.windows[id]
	if !ok {
		return entry{}, fmt.Errorf("%w %d", ErrInvalidIdentifier, id)
	}
	return e, nil
}

// Lookup returns the instance registered under id.
func (r *Registry) Lookup(id window.ID) (*window.Instance, bool) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, false
	}
	return e.inst, true
}

// Invoke runs one control request on window id.
func (r *Registry) Invoke(id window.ID, method string, args map[string]any) (channel.Response, error) {
	e, err := r.lookup(id)
	if err != nil {
		return channel.Response{Error: err.Error()}, err
	}
	resp, err := e.ch.Invoke(method, args)
	if err != nil {
		r.logger.Debug("invoke failed", "window_id", id, "method", method, "error", err)
	}
	return resp, err
}

// Close requests a native close of window id. The close-intent flow
// unregisters the window.
func (r *Registry) Close(id window.ID) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	if err := e.inst.Controller().Close(); err != nil {
		return err
	}
	// Backends that close without a will-close callback still get reaped.
	r.OnClose(id)
	return nil
}

// OnClose removes id and schedules the instance's teardown on the main loop,
// so the teardown starts only after the close notification has returned.
// The surface is stopped off the loop and the native window is released back
// on it. Unknown ids are ignored.
func (r *Registry) OnClose(id window.ID) {
	r.mu.Lock()
	e, ok := r.windows[id]
	if ok {
		delete(r.windows, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.logger.Info("window closed", "window_id", id)
	for _, o := range r.snapshotObservers() {
		o.WindowClosed(id)
	}

	r.opts.Loop.Post(func() {
		e.inst.DestroyAsync(func(err error) {
			if err != nil {
				r.logger.Warn("window teardown failed", "window_id", id, "error", err)
			}
		})
	})
}

// Reap unregisters windows whose native resource disappeared without a close
// callback. It returns the ids it removed.
func (r *Registry) Reap() []window.ID {
	var dead []window.ID
	for _, id := range r.IDs() {
		inst, ok := r.Lookup(id)
		if ok && !inst.Alive() {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		r.logger.Info("reaping window without native resource", "window_id", id)
		r.OnClose(id)
	}
	return dead
}

// CloseAll unregisters and destroys every window immediately. The daemon
// calls it on the main loop during shutdown.
func (r *Registry) CloseAll() {
	for _, id := range r.IDs() {
		r.mu.Lock()
		e, ok := r.windows[id]
		delete(r.windows, id)
		r.mu.Unlock()
		if !ok {
			continue
		}
		for _, o := range r.snapshotObservers() {
			o.WindowClosed(id)
		}
		if err := e.inst.Destroy(); err != nil {
			r.logger.Warn("window teardown failed", "window_id", id, "error", err)
		}
	}
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []window.ID {
	r.mu.Lock()
	ids := make([]window.ID, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

// List returns a snapshot of every registered window.
func (r *Registry) List() []Info {
	var out []Info
	for _, id := range r.IDs() {
		e, err := r.lookup(id)
		if err != nil {
			continue
		}
		ctrl := e.inst.Controller()
		out = append(out, Info{
			ID:        id,
			NativeID:  e.inst.NativeID(),
			Channel:   e.ch.Name(),
			Arguments: e.inst.Arguments(),
			Title:     ctrl.Title(),
			State:     e.inst.State().String(),
			Frame:     ctrl.GetFrame(),
			Maximized: ctrl.IsMaximized(),
		})
	}
	return out
}

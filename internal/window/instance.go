package window

import (
	"fmt"
	"sync"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/surface"
)

// ID identifies a window for its whole lifetime. The registry assigns it.
type ID int64

// Default content size of a new window.
const (
	DefaultWidth  = 480
	DefaultHeight = 270
)

// CloseDelegate is told when a window intends to close. Implementations
// resolve the window by id, so the instance holds no reference to the
// owner's state.
type CloseDelegate interface {
	OnClose(id ID)
}

// State is the lifecycle phase of an Instance.
type State int

const (
	StateCreated State = iota
	StateVisible
	StateHidden
	StateClosePending
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	case StateClosePending:
		return "close-pending"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures New.
type Options struct {
	ID        ID
	Arguments string
	Width     float64
	Height    float64

	Backend  platform.Backend
	Loop     Poster
	Surfaces surface.Factory
	Delegate CloseDelegate
}

// NativeOptions returns the native window configuration every instance
// starts with: a width x height content rect at the origin, full-size
// content, hidden title and a transparent title bar. The window survives
// being closed so teardown stays under the instance's control.
func NativeOptions(width, height float64) platform.WindowOptions {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return platform.WindowOptions{
		Frame: geometry.Rect{Width: width, Height: height},
		Style: platform.StyleTitled | platform.StyleClosable | platform.StyleMiniaturizable |
			platform.StyleResizable | platform.StyleFullSizeContentView,
		Chrome: platform.Chrome{
			TitleHidden:         true,
			TitlebarTransparent: true,
			Shadow:              true,
		},
		ReleasedWhenClosed: false,
	}
}

// Instance owns one native window and the surface embedded in it.
type Instance struct {
	id         ID
	arguments  string
	native     platform.NativeWindow
	surface    surface.Surface
	controller *Controller
	loop       Poster

	mu        sync.Mutex
	delegate  CloseDelegate
	notified  bool
	destroyed bool
}

var _ platform.Delegate = (*Instance)(nil)

// New creates the native window, starts its surface and installs the close
// hooks. On failure everything built so far is released.
func New(opts Options) (*Instance, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("window %d: no backend", opts.ID)
	}
	if opts.Loop == nil {
		return nil, fmt.Errorf("window %d: no main loop", opts.ID)
	}
	factory := opts.Surfaces
	if factory == nil {
		factory = surface.NullFactory()
	}

	native, err := opts.Backend.NewWindow(NativeOptions(opts.Width, opts.Height))
	if err != nil {
		return nil, fmt.Errorf("window %d: %w", opts.ID, err)
	}

	surf := factory(surface.Spec{WindowID: int64(opts.ID), NativeWindow: uint32(native.ID())})
	if err := surf.Start(surface.EntrypointArgs(int64(opts.ID), opts.Arguments)); err != nil {
		native.Release()
		return nil, fmt.Errorf("window %d: failed to start surface: %w", opts.ID, err)
	}

	inst := &Instance{
		id:         opts.ID,
		arguments:  opts.Arguments,
		native:     native,
		surface:    surf,
		controller: NewController(native, opts.Backend, opts.Loop),
		loop:       opts.Loop,
		delegate:   opts.Delegate,
	}
	native.SetDelegate(inst)
	return inst, nil
}

func (i *Instance) ID() ID { return i.id }

// Arguments returns the opaque creation arguments.
func (i *Instance) Arguments() string { return i.arguments }

// Controller returns the control surface. It keeps working as a no-op after Destroy.
func (i *Instance) Controller() *Controller { return i.controller }

// NativeID returns the native window handle.
func (i *Instance) NativeID() platform.WindowID { return i.native.ID() }

// Alive reports whether the native window still exists and the instance has
// not been destroyed.
func (i *Instance) Alive() bool {
	i.mu.Lock()
	destroyed := i.destroyed
	i.mu.Unlock()
	return !destroyed && i.native.Alive()
}

func (i *Instance) State() State {
	i.mu.Lock()
	destroyed, notified := i.destroyed, i.notified
	i.mu.Unlock()

	switch {
	case destroyed:
		return StateDestroyed
	case notified:
		return StateClosePending
	case i.native.IsVisible():
		return StateVisible
	case i.controller.wasShown():
		return StateHidden
	default:
		return StateCreated
	}
}

// WindowShouldClose notifies the delegate and always allows the close.
func (i *Instance) WindowShouldClose() bool {
	i.notifyClose()
	return true
}

// WindowWillClose notifies the delegate unless WindowShouldClose already did.
func (i *Instance) WindowWillClose() {
	i.notifyClose()
}

func (i *Instance) notifyClose() {
	i.mu.Lock()
	if i.notified || i.destroyed {
		i.mu.Unlock()
		return
	}
	i.notified = true
	d := i.delegate
	i.mu.Unlock()

	if d != nil {
		d.OnClose(i.id)
	}
}

// beginDestroy marks the instance destroyed and detaches it from native
// callbacks and control requests. It reports false when teardown already
// started.
func (i *Instance) beginDestroy() bool {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return false
	}
	i.destroyed = true
	i.delegate = nil
	i.mu.Unlock()

	i.native.SetDelegate(nil)
	i.controller.detach()
	return true
}

func (i *Instance) shutdownSurface() error {
	if err := i.surface.Shutdown(); err != nil {
		return fmt.Errorf("window %d: failed to shut down surface: %w", i.id, err)
	}
	return nil
}

// Destroy detaches the close hooks, shuts the surface down and releases the
// native window, blocking until the surface has exited. Later calls do
// nothing.
func (i *Instance) Destroy() error {
	if !i.beginDestroy() {
		return nil
	}
	err := i.shutdownSurface()
	i.native.Release()
	return err
}

// DestroyAsync tears the instance down without blocking the main loop. The
// surface is stopped on its own goroutine; the native window is released on
// the loop once the surface has exited, and done (if set) runs right after.
// Later calls do nothing.
func (i *Instance) DestroyAsync(done func(error)) {
	if !i.beginDestroy() {
		return
	}
	go func() {
		err := i.shutdownSurface()
		i.loop.Post(func() {
			i.native.Release()
			if done != nil {
				done(err)
			}
		})
	}()
}

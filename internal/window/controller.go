package window

import (
	"sync"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/platform"
)

// Activator brings the application to the foreground.
type Activator interface {
	Activate(ignoringOtherApps bool) error
}

// Poster schedules work on the main loop after the current task returns.
type Poster interface {
	Post(fn func())
}

// Controller is the remote-control surface of one native window. Methods
// must be called on the main loop. Once detached every method is a no-op.
type Controller struct {
	app  Activator
	loop Poster

	mu     sync.Mutex
	native platform.NativeWindow
	shown  bool
}

// NewController wraps native.
func NewController(native platform.NativeWindow, app Activator, loop Poster) *Controller {
	return &Controller{native: native, app: app, loop: loop}
}

func (c *Controller) window() (platform.NativeWindow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.native, c.native != nil
}

func (c *Controller) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.native = nil
}

func (c *Controller) markShown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = true
}

func (c *Controller) wasShown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shown
}

// Show makes the window key, orders it front and activates the application.
func (c *Controller) Show() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	if err := w.MakeKeyAndOrderFront(); err != nil {
		return err
	}
	c.markShown()
	return c.app.Activate(true)
}

// Hide orders the window out. It stays alive.
func (c *Controller) Hide() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.OrderOut()
}

func (c *Controller) Center() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.Center()
}

// Focus restores a minimized window and brings it to the front without
// stealing focus from other applications.
func (c *Controller) Focus() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	if err := w.Deminiaturize(); err != nil {
		return err
	}
	if err := c.app.Activate(false); err != nil {
		return err
	}
	if err := w.MakeKeyAndOrderFront(); err != nil {
		return err
	}
	c.markShown()
	return nil
}

// ShowTitleBar(false) merges the title bar into the content area. The
// change is one-way: ShowTitleBar(true) does nothing.
func (c *Controller) ShowTitleBar(show bool) error {
	if show {
		return nil
	}
	w, ok := c.window()
	if !ok {
		return nil
	}
	if err := w.InsertStyle(platform.StyleFullSizeContentView); err != nil {
		return err
	}
	chrome := w.Chrome()
	chrome.TitleHidden = true
	chrome.Opaque = true
	chrome.Shadow = false
	chrome.TransparentBackground = true
	if w.StyleMask().Has(platform.StyleTitled) && w.HasTitleBarView() {
		chrome.TitleBarViewHidden = true
	}
	return w.SetChrome(chrome)
}

func (c *Controller) IsMaximized() bool {
	w, ok := c.window()
	if !ok {
		return false
	}
	return w.IsZoomed()
}

func (c *Controller) Maximize() error {
	w, ok := c.window()
	if !ok || w.IsZoomed() {
		return nil
	}
	return w.Zoom()
}

func (c *Controller) Unmaximize() error {
	w, ok := c.window()
	if !ok || !w.IsZoomed() {
		return nil
	}
	return w.Zoom()
}

func (c *Controller) Minimize() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.Miniaturize()
}

// SetFullscreen toggles native fullscreen only when the current mode differs.
func (c *Controller) SetFullscreen(fullscreen bool) error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	if w.StyleMask().Has(platform.StyleFullScreen) == fullscreen {
		return nil
	}
	return w.ToggleFullScreen()
}

// SetFrame animates the window to frame, given in native bottom-left space.
// It returns before the animation settles.
func (c *Controller) SetFrame(frame geometry.Rect) error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.SetFrame(frame, false, true)
}

// GetFrame returns the current frame with a top-left origin.
func (c *Controller) GetFrame() geometry.Rect {
	w, ok := c.window()
	if !ok {
		return geometry.Rect{}
	}
	return geometry.Decode(w.Frame())
}

func (c *Controller) SetTitle(title string) error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.SetTitle(title)
}

// Title returns the current window title.
func (c *Controller) Title() string {
	w, ok := c.window()
	if !ok {
		return ""
	}
	return w.Title()
}

// Close requests a native close, which runs the close-intent flow.
func (c *Controller) Close() error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.Close()
}

func (c *Controller) SetFrameAutosaveName(name string) error {
	w, ok := c.window()
	if !ok {
		return nil
	}
	return w.SetFrameAutosaveName(name)
}

// StartDragging queues an interactive move on the main loop. The move is
// driven by whatever input event is current when the task runs; without one
// nothing happens.
func (c *Controller) StartDragging() {
	c.loop.Post(func() {
		w, ok := c.window()
		if !ok {
			return
		}
		ev, ok := w.CurrentEvent()
		if !ok {
			return
		}
		_ = w.PerformDrag(ev)
	})
}

// StartResizing is reserved and accepts any arguments.
func (c *Controller) StartResizing(args map[string]any) {}

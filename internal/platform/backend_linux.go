//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Poster queues work onto the main loop.
type Poster interface {
	Post(fn func())
}

// LinuxBackend creates and drives X11 top-level windows.
//
// X11 is top-left-origin; frames cross this boundary flipped against the
// root window height so callers always see bottom-left-origin native frames.
type LinuxBackend struct {
	conn   *x11.Connection
	loop   Poster
	frames FrameStore
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
// X11 event callbacks are re-posted onto loop.
func NewLinuxBackend(conn *x11.Connection, loop Poster, frames FrameStore) *LinuxBackend {
	return &LinuxBackend{conn: conn, loop: loop, frames: frames}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11
// connection to display. An empty display means $DISPLAY.
func NewLinuxBackendFromDisplay(display string, loop Poster, frames FrameStore) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, loop, frames), nil
}

// Name returns the backend identifier.
func (b *LinuxBackend) Name() string { return "x11" }

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window, or 0 when disconnected.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Activate is a no-op on X11: there is no application-level activation, and
// windows are raised individually through _NET_ACTIVE_WINDOW.
func (b *LinuxBackend) Activate(bool) error {
	if _, err := b.connection(); err != nil {
		return err
	}
	return nil
}

// ScreenFrame returns the root window bounds.
func (b *LinuxBackend) ScreenFrame() (geometry.Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return geometry.Rect{}, err
	}
	w, h, err := conn.RootSize()
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.Rect{Width: float64(w), Height: float64(h)}, nil
}

// NewWindow creates an unmapped X11 window and wires its events.
func (b *LinuxBackend) NewWindow(opts WindowOptions) (NativeWindow, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	screen, err := b.ScreenFrame()
	if err != nil {
		return nil, err
	}

	x, y, width, height := geometry.FlipY(opts.Frame, screen.Height).Ints()
	xw, err := conn.CreateWindow(x, y, width, height)
	if err != nil {
		return nil, err
	}

	w := &linuxWindow{
		backend: b,
		win:     xw,
		style:   opts.Style,
		chrome:  opts.Chrome,
		frame:   opts.Frame,
		alive:   true,
	}
	if err := w.applyChrome(); err != nil {
		xw.Destroy()
		return nil, err
	}
	w.connectEvents()
	return w, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

// linuxWindow adapts one X11 window to NativeWindow. State requested through
// EWMH is cached locally because the window manager applies it
// asynchronously; PropertyNotify events refresh the cache.
type linuxWindow struct {
	backend *LinuxBackend
	win     *xwindow.Window

	mu        sync.Mutex
	style     StyleMask
	chrome    Chrome
	frame     geometry.Rect
	title     string
	autosave  string
	mapped    bool
	minimized bool
	zoomed    bool
	delegate  Delegate
	closed    bool
	released  bool
	alive     bool
}

var _ NativeWindow = (*linuxWindow)(nil)

func (w *linuxWindow) conn() *x11.Connection { return w.backend.conn }

func (w *linuxWindow) xid() xproto.Window { return w.win.Id }

func (w *linuxWindow) ID() WindowID { return WindowID(w.win.Id) }

func (w *linuxWindow) MakeKeyAndOrderFront() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.win.Map()
	w.mu.Lock()
	w.mapped = true
	w.mu.Unlock()
	return w.conn().FocusWindow(w.xid())
}

func (w *linuxWindow) OrderOut() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.win.Unmap()
	w.mu.Lock()
	w.mapped = false
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) Center() error {
	if err := w.usable(); err != nil {
		return err
	}
	mon, err := w.conn().MonitorForWindow(w.xid())
	if err != nil {
		return fmt.Errorf("failed to find monitor: %w", err)
	}
	x, y, width, height, err := w.conn().GetGeometry(w.xid())
	if err != nil {
		return fmt.Errorf("failed to read geometry: %w", err)
	}
	bounds := geometry.Rect{X: float64(mon.X), Y: float64(mon.Y), Width: float64(mon.Width), Height: float64(mon.Height)}
	current := geometry.Rect{X: float64(x), Y: float64(y), Width: float64(width), Height: float64(height)}
	cx, cy, cw, ch := geometry.Centered(current, bounds).Ints()
	return w.conn().MoveResizeWindow(w.xid(), cx, cy, cw, ch)
}

func (w *linuxWindow) Deminiaturize() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.mu.Lock()
	minimized := w.minimized
	w.mu.Unlock()
	if !minimized {
		return nil
	}
	w.win.Map()
	w.mu.Lock()
	w.minimized = false
	w.mapped = true
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) Miniaturize() error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.conn().IconifyWindow(w.xid()); err != nil {
		return fmt.Errorf("failed to iconify window: %w", err)
	}
	w.mu.Lock()
	w.minimized = true
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) IsMiniaturized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *linuxWindow) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mapped && !w.minimized
}

func (w *linuxWindow) IsZoomed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoomed
}

func (w *linuxWindow) Zoom() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.mu.Lock()
	target := !w.zoomed
	w.mu.Unlock()
	if err := w.conn().SetMaximized(w.xid(), target); err != nil {
		return err
	}
	w.mu.Lock()
	w.zoomed = target
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) ToggleFullScreen() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.mu.Lock()
	target := !w.style.Has(StyleFullScreen)
	w.mu.Unlock()
	if err := w.conn().SetFullscreen(w.xid(), target); err != nil {
		return err
	}
	w.mu.Lock()
	w.style ^= StyleFullScreen
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) StyleMask() StyleMask {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style
}

func (w *linuxWindow) InsertStyle(flag StyleMask) error {
	w.mu.Lock()
	w.style |= flag
	w.mu.Unlock()
	return w.applyChrome()
}

func (w *linuxWindow) Chrome() Chrome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chrome
}

func (w *linuxWindow) SetChrome(c Chrome) error {
	w.mu.Lock()
	w.chrome = c
	w.mu.Unlock()
	return w.applyChrome()
}

// HasTitleBarView reports whether the window manager draws a title bar.
func (w *linuxWindow) HasTitleBarView() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style.Has(StyleTitled)
}

// applyChrome maps the chrome flags onto what X11 can express: decorations
// are dropped once the title bar is hidden or content fills the whole frame,
// and a transparent background becomes a zero background pixel.
func (w *linuxWindow) applyChrome() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.mu.Lock()
	style, chrome := w.style, w.chrome
	w.mu.Unlock()

	decorated := style.Has(StyleTitled) && !chrome.TitleBarViewHidden
	if err := w.conn().SetDecorated(w.xid(), decorated); err != nil {
		return err
	}
	pixel := uint32(0xffffff)
	if chrome.TransparentBackground {
		pixel = 0
	}
	return w.conn().SetBackgroundPixel(w.xid(), pixel)
}

func (w *linuxWindow) Frame() geometry.Rect {
	x, y, width, height, err := w.conn().GetGeometry(w.xid())
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.frame
	}
	screen, err := w.backend.ScreenFrame()
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.frame
	}
	native := geometry.FlipY(geometry.Rect{
		X: float64(x), Y: float64(y), Width: float64(width), Height: float64(height),
	}, screen.Height)
	w.mu.Lock()
	w.frame = native
	w.mu.Unlock()
	return native
}

// SetFrame issues the move/resize request and returns; X11 has no frame
// animation, the window manager applies the geometry when it gets to it.
func (w *linuxWindow) SetFrame(frame geometry.Rect, _ bool, _ bool) error {
	if err := w.usable(); err != nil {
		return err
	}
	screen, err := w.backend.ScreenFrame()
	if err != nil {
		return err
	}
	x, y, width, height := geometry.FlipY(frame, screen.Height).Ints()
	if err := w.conn().MoveResizeWindow(w.xid(), x, y, width, height); err != nil {
		return err
	}
	w.mu.Lock()
	w.frame = frame
	name := w.autosave
	w.mu.Unlock()
	return w.saveFrame(name, frame)
}

func (w *linuxWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *linuxWindow) SetTitle(title string) error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.conn().SetTitle(w.xid(), title); err != nil {
		return err
	}
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	return nil
}

// Close fires WindowWillClose and unmaps the window. The X resource stays
// until Release.
func (w *linuxWindow) Close() error {
	w.mu.Lock()
	if w.closed || w.released {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	d := w.delegate
	w.mu.Unlock()

	if d != nil {
		d.WindowWillClose()
	}
	if !w.Alive() {
		return nil
	}
	w.win.Unmap()
	w.mu.Lock()
	w.mapped = false
	w.mu.Unlock()
	return nil
}

func (w *linuxWindow) SetFrameAutosaveName(name string) error {
	w.mu.Lock()
	w.autosave = name
	w.mu.Unlock()

	store := w.backend.frames
	if name == "" || store == nil {
		return nil
	}
	frame, ok, err := store.Load(name)
	if err != nil {
		return err
	}
	if ok {
		return w.SetFrame(frame, false, false)
	}
	return store.Save(name, w.Frame())
}

func (w *linuxWindow) saveFrame(name string, frame geometry.Rect) error {
	if name == "" || w.backend.frames == nil {
		return nil
	}
	return w.backend.frames.Save(name, frame)
}

// CurrentEvent reports the pointer state while a mouse button is held, which
// is the only moment an interactive move can start.
func (w *linuxWindow) CurrentEvent() (InputEvent, bool) {
	if w.usable() != nil {
		return InputEvent{}, false
	}
	rootX, rootY, button, err := w.conn().PointerState()
	if err != nil || button == 0 {
		return InputEvent{}, false
	}
	return InputEvent{RootX: rootX, RootY: rootY, Button: button}, true
}

func (w *linuxWindow) PerformDrag(ev InputEvent) error {
	if err := w.usable(); err != nil {
		return err
	}
	return w.conn().StartMove(w.xid(), ev.RootX, ev.RootY, ev.Button)
}

func (w *linuxWindow) SetDelegate(d Delegate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delegate = d
}

// Release destroys the X window and detaches its event handlers.
func (w *linuxWindow) Release() {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return
	}
	w.released = true
	w.delegate = nil
	alive := w.alive
	w.mu.Unlock()

	if alive {
		w.win.Destroy()
	} else {
		xevent.Detach(w.conn().XUtil, w.xid())
	}
}

func (w *linuxWindow) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive && !w.released
}

func (w *linuxWindow) usable() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released || !w.alive {
		return ErrClosed
	}
	return nil
}

// connectEvents registers X event handlers. They run on the xevent
// goroutine and only ever post onto the main loop.
func (w *linuxWindow) connectEvents() {
	xu := w.conn().XUtil
	id := w.xid()

	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if !w.isDeleteRequest(ev) {
			return
		}
		w.backend.loop.Post(w.handleDeleteRequest)
	}).Connect(xu, id)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		w.backend.loop.Post(w.refreshState)
	}).Connect(xu, id)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w.backend.loop.Post(func() {
			w.mu.Lock()
			name := w.autosave
			released := w.released
			w.mu.Unlock()
			if released || name == "" {
				return
			}
			_ = w.saveFrame(name, w.Frame())
		})
	}).Connect(xu, id)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		w.backend.loop.Post(func() {
			w.mu.Lock()
			w.alive = false
			w.mapped = false
			w.mu.Unlock()
		})
	}).Connect(xu, id)
}

func (w *linuxWindow) isDeleteRequest(ev xevent.ClientMessageEvent) bool {
	protocols, err := w.conn().Atom("WM_PROTOCOLS")
	if err != nil || ev.Type != protocols {
		return false
	}
	deleteAtom, err := w.conn().Atom("WM_DELETE_WINDOW")
	if err != nil {
		return false
	}
	data := ev.Data.Data32
	return len(data) > 0 && xproto.Atom(data[0]) == deleteAtom
}

// handleDeleteRequest is the user clicking the close button.
func (w *linuxWindow) handleDeleteRequest() {
	w.mu.Lock()
	d := w.delegate
	w.mu.Unlock()
	if d != nil && !d.WindowShouldClose() {
		return
	}
	_ = w.Close()
}

func (w *linuxWindow) refreshState() {
	if w.usable() != nil {
		return
	}
	state, err := w.conn().GetWindowState(w.xid())
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.zoomed = state.Maximized
	w.minimized = state.Hidden
	if state.Fullscreen {
		w.style |= StyleFullScreen
	} else {
		w.style &^= StyleFullScreen
	}
}

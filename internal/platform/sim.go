package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/multiwin/internal/geometry"
)

// SimBackend is an in-memory window system. It backs headless daemons and
// tests, and counts native actions so callers can verify idempotence.
type SimBackend struct {
	mu       sync.Mutex
	screen   geometry.Rect
	frames   FrameStore
	nextID   WindowID
	windows  map[WindowID]*SimWindow
	failNext error

	// Activations records the ignoringOtherApps flag of every Activate call.
	Activations []bool
}

var _ Backend = (*SimBackend)(nil)

// NewSimBackend creates a simulated backend with the given screen size.
func NewSimBackend(width, height float64, frames FrameStore) *SimBackend {
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	return &SimBackend{
		screen:  geometry.Rect{Width: width, Height: height},
		frames:  frames,
		nextID:  0x400001,
		windows: make(map[WindowID]*SimWindow),
	}
}

// Name returns the backend identifier.
func (b *SimBackend) Name() string { return "sim" }

// FailNextWindow makes the next NewWindow call return err.
func (b *SimBackend) FailNextWindow(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// NewWindow creates an ordered-out simulated window.
func (b *SimBackend) NewWindow(opts WindowOptions) (NativeWindow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failNext; err != nil {
		b.failNext = nil
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &SimWindow{
		backend: b,
		id:      b.nextID,
		frame:   opts.Frame,
		style:   opts.Style,
		chrome:  opts.Chrome,
		alive:   true,
	}
	b.nextID++
	b.windows[w.id] = w
	return w, nil
}

// Activate records an application activation.
func (b *SimBackend) Activate(ignoringOtherApps bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Activations = append(b.Activations, ignoringOtherApps)
	return nil
}

// ScreenFrame returns the simulated screen bounds.
func (b *SimBackend) ScreenFrame() (geometry.Rect, error) {
	return b.screen, nil
}

// Window returns the simulated window with the given handle.
func (b *SimBackend) Window(id WindowID) (*SimWindow, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	return w, ok
}

// Len returns the number of windows created and not yet released.
func (b *SimBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.windows)
}

// SimWindow is a simulated native window.
type SimWindow struct {
	backend *SimBackend

	mu          sync.Mutex
	id          WindowID
	frame       geometry.Rect
	restore     geometry.Rect
	style       StyleMask
	chrome      Chrome
	title       string
	autosave    string
	visible     bool
	key         bool
	minimized   bool
	zoomed      bool
	closed      bool
	released    bool
	alive       bool
	delegate    Delegate
	event       *InputEvent
	zoomCalls   int
	toggleCalls int
	drags       []InputEvent
	animated    bool
}

var _ NativeWindow = (*SimWindow)(nil)

func (w *SimWindow) ID() WindowID { return w.id }

func (w *SimWindow) MakeKeyAndOrderFront() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
	w.key = true
	return nil
}

func (w *SimWindow) OrderOut() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	w.key = false
	return nil
}

func (w *SimWindow) Center() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = geometry.Centered(w.frame, w.backend.screen)
	return nil
}

func (w *SimWindow) Deminiaturize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.minimized {
		w.minimized = false
		w.visible = true
	}
	return nil
}

func (w *SimWindow) Miniaturize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = true
	w.visible = false
	w.key = false
	return nil
}

func (w *SimWindow) IsMiniaturized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *SimWindow) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *SimWindow) IsZoomed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoomed
}

// Zoom toggles between the screen frame and the frame before zooming.
func (w *SimWindow) Zoom() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.zoomCalls++
	if w.zoomed {
		w.frame = w.restore
	} else {
		w.restore = w.frame
		w.frame = w.backend.screen
	}
	w.zoomed = !w.zoomed
	return nil
}

func (w *SimWindow) ToggleFullScreen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.toggleCalls++
	w.style ^= StyleFullScreen
	return nil
}

func (w *SimWindow) StyleMask() StyleMask {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style
}

func (w *SimWindow) InsertStyle(flag StyleMask) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.style |= flag
	return nil
}

func (w *SimWindow) Chrome() Chrome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chrome
}

func (w *SimWindow) SetChrome(c Chrome) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chrome = c
	return nil
}

func (w *SimWindow) HasTitleBarView() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style.Has(StyleTitled)
}

func (w *SimWindow) Frame() geometry.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frame
}

// SetFrame applies the frame at once; a simulated animation settles immediately.
func (w *SimWindow) SetFrame(frame geometry.Rect, _ bool, animate bool) error {
	w.mu.Lock()
	w.frame = frame
	w.animated = animate
	name := w.autosave
	w.mu.Unlock()

	if name != "" && w.backend.frames != nil {
		return w.backend.frames.Save(name, frame)
	}
	return nil
}

func (w *SimWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *SimWindow) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
	return nil
}

// Close fires WindowWillClose and orders the window out. Closing twice is harmless.
func (w *SimWindow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	d := w.delegate
	w.mu.Unlock()

	if d != nil {
		d.WindowWillClose()
	}
	return w.OrderOut()
}

// SetFrameAutosaveName binds the window to a persisted frame slot, restoring
// the stored frame when one exists.
func (w *SimWindow) SetFrameAutosaveName(name string) error {
	w.mu.Lock()
	w.autosave = name
	w.mu.Unlock()

	if name == "" || w.backend.frames == nil {
		return nil
	}
	frame, ok, err := w.backend.frames.Load(name)
	if err != nil {
		return err
	}
	if ok {
		w.mu.Lock()
		w.frame = frame
		w.mu.Unlock()
		return nil
	}
	return w.backend.frames.Save(name, w.Frame())
}

func (w *SimWindow) CurrentEvent() (InputEvent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.event == nil {
		return InputEvent{}, false
	}
	return *w.event, true
}

func (w *SimWindow) PerformDrag(ev InputEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drags = append(w.drags, ev)
	return nil
}

func (w *SimWindow) SetDelegate(d Delegate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delegate = d
}

// Release drops the window's delegate and stops tracking it in the backend.
func (w *SimWindow) Release() {
	w.mu.Lock()
	w.released = true
	w.delegate = nil
	w.mu.Unlock()

	b := w.backend
	b.mu.Lock()
	delete(b.windows, w.id)
	b.mu.Unlock()
}

func (w *SimWindow) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

// UserClose simulates the user clicking the close button: the delegate may
// veto, otherwise the window closes.
func (w *SimWindow) UserClose() error {
	w.mu.Lock()
	d := w.delegate
	w.mu.Unlock()

	if d != nil && !d.WindowShouldClose() {
		return nil
	}
	return w.Close()
}

// Destroy simulates the OS resource disappearing without any delegate callback.
func (w *SimWindow) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alive = false
	w.visible = false
}

// SetCurrentEvent sets (or clears, with nil) the event being dispatched.
func (w *SimWindow) SetCurrentEvent(ev *InputEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.event = ev
}

// ZoomCalls returns how many times the native zoom action ran.
func (w *SimWindow) ZoomCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoomCalls
}

// ToggleFullScreenCalls returns how many times the native fullscreen toggle ran.
func (w *SimWindow) ToggleFullScreenCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.toggleCalls
}

// Drags returns the input events interactive moves were started with.
func (w *SimWindow) Drags() []InputEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]InputEvent(nil), w.drags...)
}

// Released reports whether Release was called.
func (w *SimWindow) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}

// IsKey reports whether the window is the key window.
func (w *SimWindow) IsKey() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.key
}

// Delegate returns the installed delegate.
func (w *SimWindow) Delegate() Delegate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.delegate
}

// Animated reports whether the last SetFrame asked for animation.
func (w *SimWindow) Animated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.animated
}

// AutosaveName returns the bound autosave name.
func (w *SimWindow) AutosaveName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.autosave
}

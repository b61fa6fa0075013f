package platform

import (
	"errors"

	"github.com/1broseidon/multiwin/internal/geometry"
)

// ErrClosed is returned by operations on a native window whose resources were released.
var ErrClosed = errors.New("native window released")

// WindowID is a platform-neutral native window handle.
type WindowID uint32

// StyleMask mirrors the native window style flags the control surface reads and sets.
type StyleMask uint32

const (
	StyleTitled StyleMask = 1 << iota
	StyleClosable
	StyleMiniaturizable
	StyleResizable
	StyleFullSizeContentView
	StyleFullScreen
)

// Has reports whether every bit in flag is set.
func (m StyleMask) Has(flag StyleMask) bool {
	return m&flag == flag
}

// Chrome holds the window decoration flags that are not part of the style mask.
type Chrome struct {
	TitleHidden           bool
	TitlebarTransparent   bool
	Opaque                bool
	Shadow                bool
	TransparentBackground bool
	TitleBarViewHidden    bool
}

// InputEvent is the native input event currently being dispatched, used to
// start interactive moves.
type InputEvent struct {
	RootX  int
	RootY  int
	Button int
}

// Delegate receives close-intent callbacks from a native window.
type Delegate interface {
	// WindowShouldClose is called for user-initiated closes; returning false vetoes it.
	WindowShouldClose() bool
	// WindowWillClose is called once the close is committed.
	WindowWillClose()
}

// WindowOptions configures a new native window. Frame is in native
// bottom-left-origin coordinates.
type WindowOptions struct {
	Frame              geometry.Rect
	Style              StyleMask
	Chrome             Chrome
	ReleasedWhenClosed bool
}

// NativeWindow is one OS top-level window. Every method must be called on the main loop.
type NativeWindow interface {
	ID() WindowID

	MakeKeyAndOrderFront() error
	OrderOut() error
	Center() error
	Deminiaturize() error
	Miniaturize() error
	IsMiniaturized() bool
	IsVisible() bool

	IsZoomed() bool
	Zoom() error
	ToggleFullScreen() error

	StyleMask() StyleMask
	InsertStyle(flag StyleMask) error
	Chrome() Chrome
	SetChrome(c Chrome) error
	// HasTitleBarView reports whether a title bar view element exists to hide.
	HasTitleBarView() bool

	Frame() geometry.Rect
	SetFrame(frame geometry.Rect, display, animate bool) error

	Title() string
	SetTitle(title string) error

	// Close commits the close: WindowWillClose fires, then the window is ordered out.
	Close() error
	SetFrameAutosaveName(name string) error

	CurrentEvent() (InputEvent, bool)
	PerformDrag(ev InputEvent) error

	SetDelegate(d Delegate)
	// Release drops the window's content and controller references. The
	// window cannot be used afterwards.
	Release()
	// Alive reports whether the underlying OS resource still exists.
	Alive() bool
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Name() string
	NewWindow(opts WindowOptions) (NativeWindow, error)
	// Activate brings the application to the foreground.
	Activate(ignoringOtherApps bool) error
	ScreenFrame() (geometry.Rect, error)
}

// FrameStore persists window frames under autosave names.
type FrameStore interface {
	Load(name string) (geometry.Rect, bool, error)
	Save(name string, frame geometry.Rect) error
}

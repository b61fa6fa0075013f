package platform

import (
	"errors"
	"testing"

	"github.com/1broseidon/multiwin/internal/geometry"
)

type memFrames map[string]geometry.Rect

func (m memFrames) Load(name string) (geometry.Rect, bool, error) {
	r, ok := m[name]
	return r, ok, nil
}

func (m memFrames) Save(name string, frame geometry.Rect) error {
	m[name] = frame
	return nil
}

type vetoDelegate struct {
	allow      bool
	shouldCall int
	willCall   int
}

func (d *vetoDelegate) WindowShouldClose() bool { d.shouldCall++; return d.allow }
func (d *vetoDelegate) WindowWillClose()        { d.willCall++ }

func newSimWindow(t *testing.T, b *SimBackend) *SimWindow {
	t.Helper()
	nw, err := b.NewWindow(WindowOptions{Frame: geometry.Rect{X: 10, Y: 20, Width: 480, Height: 270}})
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return nw.(*SimWindow)
}

func TestSimBackendDefaultsAndFailure(t *testing.T) {
	b := NewSimBackend(0, 0, nil)
	screen, _ := b.ScreenFrame()
	if screen.Width != 1920 || screen.Height != 1080 {
		t.Fatalf("screen = %+v", screen)
	}

	boom := errors.New("no display")
	b.FailNextWindow(boom)
	if _, err := b.NewWindow(WindowOptions{}); !errors.Is(err, boom) {
		t.Fatalf("NewWindow() = %v", err)
	}
	w := newSimWindow(t, b)
	if got, ok := b.Window(w.ID()); !ok || got != w {
		t.Fatal("window not tracked")
	}
	if w.IsVisible() {
		t.Fatal("new window is visible")
	}
}

func TestSimUserCloseVeto(t *testing.T) {
	w := newSimWindow(t, NewSimBackend(800, 600, nil))
	d := &vetoDelegate{}
	w.SetDelegate(d)
	w.MakeKeyAndOrderFront()

	if err := w.UserClose(); err != nil {
		t.Fatalf("UserClose: %v", err)
	}
	if d.willCall != 0 || !w.IsVisible() {
		t.Fatalf("vetoed close went through: will=%d visible=%v", d.willCall, w.IsVisible())
	}

	d.allow = true
	w.UserClose()
	w.Close()
	if d.shouldCall != 2 || d.willCall != 1 || w.IsVisible() {
		t.Fatalf("should=%d will=%d visible=%v", d.shouldCall, d.willCall, w.IsVisible())
	}
}

func TestSimAutosaveRestoresFrame(t *testing.T) {
	frames := memFrames{"main": {X: 100, Y: 200, Width: 640, Height: 360}}
	b := NewSimBackend(1920, 1080, frames)

	w := newSimWindow(t, b)
	if err := w.SetFrameAutosaveName("main"); err != nil {
		t.Fatalf("SetFrameAutosaveName: %v", err)
	}
	if got := w.Frame(); got != frames["main"] {
		t.Fatalf("frame = %+v, want restored %+v", got, frames["main"])
	}

	moved := geometry.Rect{X: 1, Y: 2, Width: 300, Height: 200}
	w.SetFrame(moved, false, true)
	if frames["main"] != moved || !w.Animated() {
		t.Fatalf("saved = %+v animated = %v", frames["main"], w.Animated())
	}

	fresh := newSimWindow(t, b)
	if err := fresh.SetFrameAutosaveName("other"); err != nil {
		t.Fatalf("SetFrameAutosaveName: %v", err)
	}
	if frames["other"] != fresh.Frame() {
		t.Fatalf("new slot = %+v, want current frame", frames["other"])
	}
}

func TestSimZoomRestores(t *testing.T) {
	b := NewSimBackend(1000, 800, nil)
	w := newSimWindow(t, b)
	before := w.Frame()

	w.Zoom()
	if !w.IsZoomed() || w.Frame().Width != 1000 {
		t.Fatalf("zoomed frame = %+v", w.Frame())
	}
	w.Zoom()
	if w.IsZoomed() || w.Frame() != before || w.ZoomCalls() != 2 {
		t.Fatalf("restored frame = %+v calls=%d", w.Frame(), w.ZoomCalls())
	}
}

func TestSimReleaseStopsTracking(t *testing.T) {
	b := NewSimBackend(0, 0, nil)
	kept := newSimWindow(t, b)
	gone := newSimWindow(t, b)

	gone.Release()
	gone.Release()
	if _, ok := b.Window(gone.ID()); ok {
		t.Fatal("released window still tracked")
	}
	if !gone.Released() {
		t.Fatal("Released() = false")
	}
	if got, ok := b.Window(kept.ID()); !ok || got != kept || b.Len() != 1 {
		t.Fatalf("kept window lookup ok=%v len=%d", ok, b.Len())
	}
}

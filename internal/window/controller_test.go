package window

import (
	"testing"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/platform"
)

func TestShowActivatesIgnoringOtherApps(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if !f.native.IsVisible() || !f.native.IsKey() {
		t.Fatal("Show() did not make the window key and visible")
	}
	if err := ctrl.Focus(); err != nil {
		t.Fatalf("Focus() error: %v", err)
	}

	want := []bool{true, false}
	if len(f.backend.Activations) != len(want) {
		t.Fatalf("Activations = %v, want %v", f.backend.Activations, want)
	}
	for i := range want {
		if f.backend.Activations[i] != want[i] {
			t.Fatalf("Activations = %v, want %v", f.backend.Activations, want)
		}
	}
}

func TestFocusDeminiaturizes(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	if err := ctrl.Minimize(); err != nil {
		t.Fatalf("Minimize() error: %v", err)
	}
	if !f.native.IsMiniaturized() {
		t.Fatal("Minimize() did not miniaturize")
	}
	if err := ctrl.Focus(); err != nil {
		t.Fatalf("Focus() error: %v", err)
	}
	if f.native.IsMiniaturized() || !f.native.IsVisible() {
		t.Fatal("Focus() did not restore the window")
	}
}

func TestMaximizeIdempotent(t *testing.T) {
	tests := []struct {
		name      string
		ops       []bool // true = maximize, false = unmaximize
		wantState bool
		wantZooms int
	}{
		{"maximize twice", []bool{true, true}, true, 1},
		{"unmaximize first", []bool{false}, false, 0},
		{"round trip", []bool{true, false}, false, 2},
		{"repeat both", []bool{true, true, false, false, true}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctrl := f.inst.Controller()
			for _, maximize := range tt.ops {
				var err error
				if maximize {
					err = ctrl.Maximize()
				} else {
					err = ctrl.Unmaximize()
				}
				if err != nil {
					t.Fatalf("op error: %v", err)
				}
			}
			if got := ctrl.IsMaximized(); got != tt.wantState {
				t.Errorf("IsMaximized() = %v, want %v", got, tt.wantState)
			}
			if got := f.native.ZoomCalls(); got != tt.wantZooms {
				t.Errorf("zoom calls = %d, want %d", got, tt.wantZooms)
			}
		})
	}
}

func TestSetFullscreenIdempotent(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	for _, v := range []bool{false, true, true, false, false, true} {
		if err := ctrl.SetFullscreen(v); err != nil {
			t.Fatalf("SetFullscreen(%v) error: %v", v, err)
		}
	}
	if got := f.native.ToggleFullScreenCalls(); got != 3 {
		t.Fatalf("toggle calls = %d, want 3", got)
	}
	if !f.native.StyleMask().Has(platform.StyleFullScreen) {
		t.Fatal("window not fullscreen")
	}
}

func TestShowTitleBarIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	if err := ctrl.ShowTitleBar(false); err != nil {
		t.Fatalf("ShowTitleBar(false) error: %v", err)
	}
	if err := ctrl.ShowTitleBar(true); err != nil {
		t.Fatalf("ShowTitleBar(true) error: %v", err)
	}

	chrome := f.native.Chrome()
	want := platform.Chrome{
		TitleHidden:           true,
		TitlebarTransparent:   true,
		Opaque:                true,
		Shadow:                false,
		TransparentBackground: true,
		TitleBarViewHidden:    true,
	}
	if chrome != want {
		t.Fatalf("chrome = %+v, want %+v", chrome, want)
	}
	if !f.native.StyleMask().Has(platform.StyleFullSizeContentView) {
		t.Fatal("full-size content view style missing")
	}
}

func TestShowTitleBarUntitled(t *testing.T) {
	backend := platform.NewSimBackend(0, 0, nil)
	native, err := backend.NewWindow(platform.WindowOptions{Frame: geometry.Rect{Width: 10, Height: 10}})
	if err != nil {
		t.Fatalf("NewWindow() error: %v", err)
	}
	ctrl := NewController(native, backend, nil)
	if err := ctrl.ShowTitleBar(false); err != nil {
		t.Fatalf("ShowTitleBar(false) error: %v", err)
	}
	if native.Chrome().TitleBarViewHidden {
		t.Fatal("title bar view hidden on an untitled window")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	native := geometry.Rect{X: 100, Y: 200, Width: 640, Height: 360}
	if err := ctrl.SetFrame(native); err != nil {
		t.Fatalf("SetFrame() error: %v", err)
	}
	if !f.native.Animated() {
		t.Fatal("SetFrame() did not animate")
	}

	got := ctrl.GetFrame()
	want := geometry.Rect{X: 100, Y: 560, Width: 640, Height: 360}
	if got != want {
		t.Fatalf("GetFrame() = %+v, want %+v", got, want)
	}
	if back := geometry.Encode(got); back != native {
		t.Fatalf("Encode(GetFrame()) = %+v, want %+v", back, native)
	}
}

func TestSetTitleLeavesFrame(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	before := ctrl.GetFrame()
	if err := ctrl.SetTitle("Hello"); err != nil {
		t.Fatalf("SetTitle() error: %v", err)
	}
	if f.native.Title() != "Hello" {
		t.Fatalf("Title() = %q", f.native.Title())
	}
	if ctrl.GetFrame() != before {
		t.Fatal("SetTitle() changed the frame")
	}
}

func TestAutosaveRestoresFrame(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	if err := ctrl.SetFrameAutosaveName("main"); err != nil {
		t.Fatalf("SetFrameAutosaveName() error: %v", err)
	}
	saved := geometry.Rect{X: 5, Y: 6, Width: 700, Height: 400}
	if err := ctrl.SetFrame(saved); err != nil {
		t.Fatalf("SetFrame() error: %v", err)
	}

	native, err := f.backend.NewWindow(NativeOptions(0, 0))
	if err != nil {
		t.Fatalf("NewWindow() error: %v", err)
	}
	ctrl2 := NewController(native, f.backend, f.loop)
	if err := ctrl2.SetFrameAutosaveName("main"); err != nil {
		t.Fatalf("SetFrameAutosaveName() error: %v", err)
	}
	if native.Frame() != saved {
		t.Fatalf("restored frame = %+v, want %+v", native.Frame(), saved)
	}
}

func TestStartDraggingIsDeferred(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()

	ev := platform.InputEvent{RootX: 40, RootY: 50, Button: 1}
	f.native.SetCurrentEvent(&ev)

	ctrl.StartDragging()
	if len(f.native.Drags()) != 0 {
		t.Fatal("StartDragging() ran inline")
	}
	f.loop.RunPending()

	drags := f.native.Drags()
	if len(drags) != 1 || drags[0] != ev {
		t.Fatalf("drags = %+v, want [%+v]", drags, ev)
	}
}

func TestStartDraggingWithoutEvent(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()
	before := f.native.Frame()

	ctrl.StartDragging()
	f.loop.RunPending()

	if len(f.native.Drags()) != 0 {
		t.Fatal("drag performed without an input event")
	}
	if f.native.Frame() != before {
		t.Fatal("window moved without an input event")
	}
}

func TestStartResizingAcceptsAnything(t *testing.T) {
	f := newFixture(t)
	ctrl := f.inst.Controller()
	ctrl.StartResizing(nil)
	ctrl.StartResizing(map[string]any{"edge": "bottomRight", "n": 3.0, "nested": map[string]any{}})
}

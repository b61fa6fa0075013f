package channel

import (
	"errors"
	"testing"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/mainloop"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/window"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		method string
		args   map[string]any
		want   Op
	}{
		{"show", nil, Show{}},
		{"hide", nil, Hide{}},
		{"center", nil, Center{}},
		{"focus", nil, Focus{}},
		{"showTitleBar", map[string]any{"show": false}, ShowTitleBar{Show: false}},
		{"isMaximized", nil, IsMaximized{}},
		{"maximize", nil, Maximize{}},
		{"unmaximize", nil, Unmaximize{}},
		{"minimize", nil, Minimize{}},
		{"setFullscreen", map[string]any{"fullscreen": true}, SetFullscreen{Fullscreen: true}},
		{"setFrame", map[string]any{"x": 1.0, "y": 2.0, "width": 3.0, "height": 4.0},
			SetFrame{Frame: geometry.Rect{X: 1, Y: 2, Width: 3, Height: 4}}},
		{"setFrame", map[string]any{"left": 5, "bottom": 6, "width": 7, "height": 8},
			SetFrame{Frame: geometry.Rect{X: 5, Y: 6, Width: 7, Height: 8}}},
		{"getFrame", nil, GetFrame{}},
		{"setTitle", map[string]any{"title": "Hello"}, SetTitle{Title: "Hello"}},
		{"close", nil, Close{}},
		{"setFrameAutosaveName", map[string]any{"name": "main"}, SetFrameAutosaveName{Name: "main"}},
		{"startDragging", nil, StartDragging{}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, err := Decode(tt.method, tt.args)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode() = %#v, want %#v", got, tt.want)
			}
			if got.Method() != tt.method {
				t.Fatalf("Method() = %q, want %q", got.Method(), tt.method)
			}
		})
	}
}

func TestDecodeStartResizing(t *testing.T) {
	args := map[string]any{"edge": "left", "anything": []any{1.0, "x"}}
	op, err := Decode("startResizing", args)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if _, ok := op.(StartResizing); !ok {
		t.Fatalf("Decode() = %T", op)
	}
	if _, err := Decode("startResizing", nil); err != nil {
		t.Fatalf("Decode(nil args) error: %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		method string
		args   map[string]any
		want   error
	}{
		{"explode", nil, ErrUnknownMethod},
		{"", nil, ErrUnknownMethod},
		{"setTitle", nil, ErrInvalidArgument},
		{"setTitle", map[string]any{"title": 3.0}, ErrInvalidArgument},
		{"showTitleBar", map[string]any{"show": "no"}, ErrInvalidArgument},
		{"setFullscreen", map[string]any{}, ErrInvalidArgument},
		{"setFrame", map[string]any{"x": 1.0, "y": 2.0, "width": 3.0}, ErrInvalidArgument},
		{"setFrame", map[string]any{"x": 1.0, "top": 2.0, "width": 3.0, "height": 4.0}, ErrInvalidArgument},
		{"setFrameAutosaveName", map[string]any{"name": nil}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.method, tt.args); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%q, %v) error = %v, want %v", tt.method, tt.args, err, tt.want)
		}
	}
}

func TestMethodsCoverEveryOp(t *testing.T) {
	if got := len(Methods()); got != 17 {
		t.Fatalf("len(Methods()) = %d, want 17", got)
	}
}

func newChannel(t *testing.T) (*Channel, *platform.SimWindow, *mainloop.Loop) {
	t.Helper()
	backend := platform.NewSimBackend(1920, 1080, nil)
	loop := mainloop.New()
	native, err := backend.NewWindow(window.NativeOptions(0, 0))
	if err != nil {
		t.Fatalf("NewWindow() error: %v", err)
	}
	sim, _ := backend.Window(native.ID())
	return New(3, window.NewController(native, backend, loop)), sim, loop
}

func TestChannelInvoke(t *testing.T) {
	ch, sim, _ := newChannel(t)

	if ch.Name() != "multiwin/window/3" || ch.ID() != 3 {
		t.Fatalf("channel = %q/%d", ch.Name(), ch.ID())
	}

	if _, err := ch.Invoke("setTitle", map[string]any{"title": "Hello"}); err != nil {
		t.Fatalf("setTitle error: %v", err)
	}
	if sim.Title() != "Hello" {
		t.Fatalf("Title() = %q", sim.Title())
	}

	if _, err := ch.Invoke("maximize", nil); err != nil {
		t.Fatalf("maximize error: %v", err)
	}
	resp, err := ch.Invoke("isMaximized", nil)
	if err != nil {
		t.Fatalf("isMaximized error: %v", err)
	}
	if resp.Result != true {
		t.Fatalf("isMaximized result = %v", resp.Result)
	}

	resp, err = ch.Invoke("getFrame", nil)
	if err != nil {
		t.Fatalf("getFrame error: %v", err)
	}
	frame, ok := resp.Result.(geometry.Rect)
	if !ok {
		t.Fatalf("getFrame result = %T", resp.Result)
	}
	if frame != geometry.Decode(sim.Frame()) {
		t.Fatalf("getFrame = %+v, native %+v", frame, sim.Frame())
	}
}

func TestChannelInvokeUnknownMethod(t *testing.T) {
	ch, _, _ := newChannel(t)
	resp, err := ch.Invoke("teleport", nil)
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.Error == "" {
		t.Fatal("Response.Error is empty")
	}
}

func TestChannelStartDraggingPosts(t *testing.T) {
	ch, sim, loop := newChannel(t)
	sim.SetCurrentEvent(&platform.InputEvent{RootX: 1, RootY: 2, Button: 1})

	if _, err := ch.Invoke("startDragging", nil); err != nil {
		t.Fatalf("startDragging error: %v", err)
	}
	if n := loop.RunPending(); n != 1 {
		t.Fatalf("RunPending() = %d, want 1", n)
	}
	if len(sim.Drags()) != 1 {
		t.Fatalf("drags = %v", sim.Drags())
	}
}

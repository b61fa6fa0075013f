package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/ipc"
	"github.com/1broseidon/multiwin/internal/registry"
)

type invocation struct {
	id     int64
	method string
	args   map[string]any
}

type fakeDaemon struct {
	created []string
	invoked []invocation
	closed  []int64
	windows []registry.Info
	results map[string]json.RawMessage
	err     error
}

func (f *fakeDaemon) CreateWindow(arguments string) (*ipc.CreateWindowData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, arguments)
	return &ipc.CreateWindowData{WindowID: int64(len(f.created)), Channel: "multiwin/window/1"}, nil
}

func (f *fakeDaemon) Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.invoked = append(f.invoked, invocation{id: windowID, method: method, args: args})
	return f.results[method], nil
}

func (f *fakeDaemon) ListWindows() ([]registry.Info, error) {
	return f.windows, f.err
}

func (f *fakeDaemon) CloseWindow(windowID int64) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, windowID)
	return nil
}

func TestCreateWindowTool(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)

	_, out, err := s.handleCreateWindow(context.Background(), nil, CreateWindowInput{Arguments: "abc"})
	if err != nil {
		t.Fatalf("handleCreateWindow: %v", err)
	}
	if out.WindowID != 1 || out.Channel != "multiwin/window/1" {
		t.Fatalf("output = %+v", out)
	}
	if len(d.created) != 1 || d.created[0] != "abc" {
		t.Fatalf("created = %v", d.created)
	}
}

func TestInvokeWindowTool(t *testing.T) {
	d := &fakeDaemon{results: map[string]json.RawMessage{
		"getFrame":    json.RawMessage(`{"x":100,"y":560,"width":640,"height":360}`),
		"isMaximized": json.RawMessage(`true`),
	}}
	s := NewServer(d)

	tests := []struct {
		name   string
		method string
		args   map[string]any
		check  func(t *testing.T, result any)
	}{
		{"no result", "setTitle", map[string]any{"title": "Hello"}, func(t *testing.T, result any) {
			if result != nil {
				t.Fatalf("result = %v, want nil", result)
			}
		}},
		{"bool result", "isMaximized", nil, func(t *testing.T, result any) {
			if result != true {
				t.Fatalf("result = %v, want true", result)
			}
		}},
		{"frame result", " getFrame ", nil, func(t *testing.T, result any) {
			m, ok := result.(map[string]any)
			if !ok || m["y"] != 560.0 || m["width"] != 640.0 {
				t.Fatalf("result = %v", result)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleInvokeWindow(context.Background(), nil, InvokeWindowInput{
				WindowID: 2,
				Method:   tt.method,
				Args:     tt.args,
			})
			if err != nil {
				t.Fatalf("handleInvokeWindow: %v", err)
			}
			if out.WindowID != 2 || out.Method != strings.TrimSpace(tt.method) {
				t.Fatalf("output = %+v", out)
			}
			tt.check(t, out.Result)
		})
	}

	last := d.invoked[0]
	if last.id != 2 || last.method != "setTitle" || last.args["title"] != "Hello" {
		t.Fatalf("first invocation = %+v", last)
	}
}

func TestInvokeWindowToolRejectsUnknownMethod(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)

	_, _, err := s.handleInvokeWindow(context.Background(), nil, InvokeWindowInput{WindowID: 1, Method: "explode"})
	if err == nil || !strings.Contains(err.Error(), "available:") {
		t.Fatalf("error = %v", err)
	}
	if len(d.invoked) != 0 {
		t.Fatalf("daemon was called: %v", d.invoked)
	}

	if _, _, err := s.handleInvokeWindow(context.Background(), nil, InvokeWindowInput{WindowID: 1}); err == nil {
		t.Fatal("expected error for empty method")
	}
}

func TestInvokeWindowToolForwardsArgumentChecking(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)

	// setTitle without a title is still sent; the daemon owns argument decoding.
	if _, _, err := s.handleInvokeWindow(context.Background(), nil, InvokeWindowInput{WindowID: 1, Method: "setTitle"}); err != nil {
		t.Fatalf("handleInvokeWindow: %v", err)
	}
	if len(d.invoked) != 1 {
		t.Fatalf("invoked = %v", d.invoked)
	}
}

func TestListAndCloseTools(t *testing.T) {
	d := &fakeDaemon{windows: []registry.Info{{
		ID:    1,
		Title: "Main",
		State: "visible",
		Frame: geometry.Rect{Width: 480, Height: 270},
	}}}
	s := NewServer(d)

	_, list, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if len(list.Windows) != 1 || list.Windows[0].Title != "Main" {
		t.Fatalf("windows = %+v", list.Windows)
	}

	_, closed, err := s.handleCloseWindow(context.Background(), nil, CloseWindowInput{WindowID: 1})
	if err != nil || !closed.Closed {
		t.Fatalf("handleCloseWindow = %+v, %v", closed, err)
	}
	if len(d.closed) != 1 || d.closed[0] != 1 {
		t.Fatalf("closed = %v", d.closed)
	}
}

func TestListWindowsToolEmpty(t *testing.T) {
	s := NewServer(&fakeDaemon{})
	_, list, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if list.Windows == nil {
		t.Fatal("windows is nil, want empty slice")
	}
}

func TestToolsSurfaceDaemonErrors(t *testing.T) {
	want := errors.New("daemon error: invalid window identifier 9")
	s := NewServer(&fakeDaemon{err: want})

	if _, _, err := s.handleCreateWindow(context.Background(), nil, CreateWindowInput{}); !errors.Is(err, want) {
		t.Fatalf("create error = %v", err)
	}
	if _, _, err := s.handleInvokeWindow(context.Background(), nil, InvokeWindowInput{WindowID: 9, Method: "show"}); !errors.Is(err, want) {
		t.Fatalf("invoke error = %v", err)
	}
	if _, out, err := s.handleCloseWindow(context.Background(), nil, CloseWindowInput{WindowID: 9}); !errors.Is(err, want) || out.Closed {
		t.Fatalf("close = %+v, %v", out, err)
	}
}

func TestListMethodsTool(t *testing.T) {
	s := NewServer(&fakeDaemon{})
	_, out, err := s.handleListMethods(context.Background(), nil, ListMethodsInput{})
	if err != nil {
		t.Fatalf("handleListMethods: %v", err)
	}
	if len(out.Methods) != 17 {
		t.Fatalf("methods = %v", out.Methods)
	}
}

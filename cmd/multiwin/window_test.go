package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/ipc"
)

type call struct {
	id     int64
	method string
	args   map[string]any
}

type fakeClient struct {
	created []string
	calls   []call
	closed  []int64
	result  json.RawMessage
	err     error
}

func (f *fakeClient) CreateWindow(arguments string) (*ipc.CreateWindowData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, arguments)
	return &ipc.CreateWindowData{WindowID: 1, Channel: "multiwin/window/1"}, nil
}

func (f *fakeClient) Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error) {
	f.calls = append(f.calls, call{id: windowID, method: method, args: args})
	return f.result, f.err
}

func (f *fakeClient) CloseWindow(windowID int64) error {
	f.closed = append(f.closed, windowID)
	return f.err
}

func TestParseMethodArgs(t *testing.T) {
	got, err := parseMethodArgs([]string{"title=Main window", "fullscreen=true", "x=12.5", "show=\"false\""})
	if err != nil {
		t.Fatalf("parseMethodArgs: %v", err)
	}
	if got["title"] != "Main window" || got["fullscreen"] != true || got["x"] != 12.5 || got["show"] != "false" {
		t.Fatalf("args = %#v", got)
	}

	if got, err := parseMethodArgs(nil); err != nil || got != nil {
		t.Fatalf("empty = %v, %v", got, err)
	}
	for _, bad := range []string{"novalue", "=1"} {
		if _, err := parseMethodArgs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseFrame(t *testing.T) {
	got, err := parseFrame([]string{"10", "600", "480", "270"})
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	if got["x"] != 10.0 || got["y"] != 600.0 || got["width"] != 480.0 || got["height"] != 270.0 {
		t.Fatalf("frame = %v", got)
	}
	if _, err := parseFrame([]string{"10", "top", "480", "270"}); err == nil {
		t.Fatal("expected error for non-numeric y")
	}
}

func TestParseWindowID(t *testing.T) {
	if id, err := parseWindowID(" 42 "); err != nil || id != 42 {
		t.Fatalf("parseWindowID = %d, %v", id, err)
	}
	if _, err := parseWindowID("main"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunWindowInvoke(t *testing.T) {
	c := &fakeClient{result: json.RawMessage(`true`)}
	if code := runWindowInvoke(c, []string{"--arg", "fullscreen=true", "3", "setFullscreen"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if len(c.calls) != 1 || c.calls[0].id != 3 || c.calls[0].method != "setFullscreen" || c.calls[0].args["fullscreen"] != true {
		t.Fatalf("calls = %+v", c.calls)
	}

	if code := runWindowInvoke(c, []string{"3"}); code != 2 {
		t.Fatalf("missing method exit code = %d", code)
	}
	if code := runWindowInvoke(&fakeClient{err: errors.New("daemon error: invalid window identifier 3")}, []string{"3", "show"}); code != 1 {
		t.Fatalf("daemon error exit code = %d", code)
	}
}

func TestRunWindowFrame(t *testing.T) {
	c := &fakeClient{}
	if code := runWindowFrame(c, []string{"2"}); code != 0 {
		t.Fatalf("get exit code = %d", code)
	}
	if code := runWindowFrame(c, []string{"2", "0", "1080", "640", "360"}); code != 0 {
		t.Fatalf("set exit code = %d", code)
	}
	if code := runWindowFrame(c, []string{"2", "0"}); code != 2 {
		t.Fatalf("bad arity exit code = %d", code)
	}

	if len(c.calls) != 2 || c.calls[0].method != "getFrame" || c.calls[1].method != "setFrame" || c.calls[1].args["y"] != 1080.0 {
		t.Fatalf("calls = %+v", c.calls)
	}
}

func TestRunWindowNew(t *testing.T) {
	c := &fakeClient{}
	if code := runWindowNew(c, []string{"--demo", "--", "x"}); code != 2 {
		// --demo is not a flag of window new
		t.Fatalf("unknown flag exit code = %d", code)
	}
	if code := runWindowNew(c, []string{"--", "--demo", "x"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if len(c.created) != 1 || c.created[0] != "--demo x" {
		t.Fatalf("created = %q", c.created)
	}
}

func TestWindowUsageDescribesBothFrameOrigins(t *testing.T) {
	var buf bytes.Buffer
	printWindowUsage(&buf)
	out := buf.String()
	if !strings.Contains(out, channel.FrameOrigins) {
		t.Fatalf("usage does not describe frame origins:\n%s", out)
	}
	if strings.Contains(out, "Frames use a top-left origin") {
		t.Fatal("usage claims setFrame takes a top-left frame")
	}
}

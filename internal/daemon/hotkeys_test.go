package daemon

import (
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/platform"
	"github.com/1broseidon/multiwin/internal/window"
)

type fakeBinder struct {
	bound map[string]func()
	fail  map[string]bool
}

func (f *fakeBinder) RegisterFunc(keySequence string, callback func()) error {
	if f.fail[keySequence] {
		return errors.New("grab failed")
	}
	if f.bound == nil {
		f.bound = make(map[string]func())
	}
	f.bound[keySequence] = callback
	return nil
}

func newSimDaemon(t *testing.T) *Daemon {
	t.Helper()
	d, err := New(simOptions(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Registry().CloseAll)
	return d
}

func isKeyWindow(t *testing.T, d *Daemon, id window.ID) bool {
	t.Helper()
	sim := d.backend.Backend.(*platform.SimBackend)
	inst, ok := d.Registry().Lookup(id)
	if !ok {
		t.Fatalf("window %d not registered", id)
	}
	native, ok := sim.Window(inst.NativeID())
	if !ok {
		t.Fatalf("native window for %d missing", id)
	}
	return native.IsKey()
}

func TestBindHotkeysSkipsEmptyAndFailed(t *testing.T) {
	d := newSimDaemon(t)
	b := &fakeBinder{fail: map[string]bool{"Mod4-Tab": true}}

	n := d.bindHotkeys(b, config.DaemonConfig{
		NewWindowHotkey: " Mod4-Shift-n ",
		FocusNextHotkey: "Mod4-Tab",
	})
	if n != 1 {
		t.Fatalf("bound = %d, want 1", n)
	}
	if _, ok := b.bound["Mod4-Shift-n"]; !ok {
		t.Fatalf("bound = %v", b.bound)
	}

	if n := d.bindHotkeys(&fakeBinder{}, config.DaemonConfig{}); n != 0 {
		t.Fatalf("empty config bound %d hotkeys", n)
	}
}

func TestNewWindowHotkeyPostsToLoop(t *testing.T) {
	d := newSimDaemon(t)
	b := &fakeBinder{}
	d.bindHotkeys(b, config.DaemonConfig{NewWindowHotkey: "Mod4-n"})

	b.bound["Mod4-n"]()
	if d.Registry().Len() != 0 {
		t.Fatal("hotkey created a window off the main loop")
	}
	d.Loop().RunPending()

	ids := d.Registry().IDs()
	if len(ids) != 1 {
		t.Fatalf("ids = %v", ids)
	}
	if info := d.Registry().List()[0]; info.State != "visible" {
		t.Fatalf("hotkey window state = %q", info.State)
	}
}

func TestFocusNextCycles(t *testing.T) {
	d := newSimDaemon(t)
	b := &fakeBinder{}
	d.bindHotkeys(b, config.DaemonConfig{FocusNextHotkey: "Mod4-Tab"})

	// Pressing with no windows is a no-op.
	b.bound["Mod4-Tab"]()
	d.Loop().RunPending()

	var ids []window.ID
	for i := 0; i < 3; i++ {
		id, err := d.Registry().Create("")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, id)
	}

	for _, want := range []window.ID{ids[0], ids[1], ids[2], ids[0]} {
		b.bound["Mod4-Tab"]()
		d.Loop().RunPending()
		if d.lastFocused != want {
			t.Fatalf("lastFocused = %d, want %d", d.lastFocused, want)
		}
		if !isKeyWindow(t, d, want) {
			t.Fatalf("window %d is not key after focus", want)
		}
	}

	// A closed window is skipped.
	if err := d.Registry().Close(ids[1]); err != nil {
		t.Fatalf("Close: %v", err)
	}
	d.Loop().RunPending()
	b.bound["Mod4-Tab"]()
	d.Loop().RunPending()
	if d.lastFocused != ids[2] {
		t.Fatalf("lastFocused = %d, want %d", d.lastFocused, ids[2])
	}
}

func TestNewSimDaemonWithHotkeysConfigured(t *testing.T) {
	opts := simOptions(t)
	opts.Config.Daemon.NewWindowHotkey = "Mod4-n"
	if _, err := New(opts); err != nil {
		t.Fatalf("New: %v", err)
	}
	out := opts.LogOutput.(*syncBuffer).String()
	if !strings.Contains(out, "hotkeys disabled") || !strings.Contains(out, "backend=sim") {
		t.Fatalf("log = %q", out)
	}
}

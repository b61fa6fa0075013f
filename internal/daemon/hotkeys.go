package daemon

import (
	"strings"

	"github.com/1broseidon/multiwin/internal/config"
)

// hotkeyBinder grabs a key sequence globally.
type hotkeyBinder interface {
	RegisterFunc(keySequence string, callback func()) error
}

// bindHotkeys registers the configured daemon hotkeys on b. Callbacks fire
// off the main loop, so each one only posts work to it. It returns the
// number of hotkeys bound.
func (d *Daemon) bindHotkeys(b hotkeyBinder, cfg config.DaemonConfig) int {
	bindings := []struct {
		name string
		seq  string
		fn   func()
	}{
		{"new_window_hotkey", cfg.NewWindowHotkey, d.newWindowFromHotkey},
		{"focus_next_hotkey", cfg.FocusNextHotkey, d.focusNext},
	}

	bound := 0
	for _, hk := range bindings {
		seq := strings.TrimSpace(hk.seq)
		if seq == "" {
			continue
		}
		fn := hk.fn
		if err := b.RegisterFunc(seq, func() { d.loop.Post(fn) }); err != nil {
			d.logger.Warn("failed to register hotkey", "hotkey", hk.name, "keys", seq, "error", err)
			continue
		}
		d.logger.Info("hotkey registered", "hotkey", hk.name, "keys", seq)
		bound++
	}
	return bound
}

func (d *Daemon) newWindowFromHotkey() {
	id, err := d.registry.Create("")
	if err != nil {
		d.logger.Error("hotkey window creation failed", "error", err)
		return
	}
	if _, err := d.registry.Invoke(id, "show", nil); err != nil {
		d.logger.Warn("failed to show hotkey window", "window_id", id, "error", err)
	}
}

// focusNext focuses the window after the last one it focused, in id order,
// wrapping around.
func (d *Daemon) focusNext() {
	ids := d.registry.IDs()
	if len(ids) == 0 {
		return
	}
	next := ids[0]
	for _, id := range ids {
		if id > d.lastFocused {
			next = id
			break
		}
	}
	d.lastFocused = next
	if _, err := d.registry.Invoke(next, "focus", nil); err != nil {
		d.logger.Warn("hotkey focus failed", "window_id", next, "error", err)
	}
}

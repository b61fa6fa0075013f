package hotkeys

import (
	"errors"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrUnsupported is returned for backends without a global keyboard.
var ErrUnsupported = errors.New("backend does not support global hotkeys")

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts on the root window.
//
// Callbacks run on the X event goroutine, not on the main loop.
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler for backend.
func NewHandler(backend any) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, ErrUnsupported
	}
	xu := accessor.XUtil()
	if xu == nil {
		return nil, ErrUnsupported
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:   xu,
		root: accessor.RootWindow(),
	}, nil
}

// RegisterFunc grabs keySequence (e.g. "Mod4-Shift-n") and runs callback on
// every press.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// configureIgnoreMods makes grabs fire regardless of CapsLock, NumLock and
// ScrollLock state.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)

	base := []uint16{caps}
	for _, keysym := range []string{"Num_Lock", "Scroll_Lock"} {
		mask := modMaskForKeysym(xu, keysym)
		if mask != 0 && !containsMask(base, mask) {
			base = append(base, mask)
		}
	}

	xevent.IgnoreMods = maskSubsets(base)
}

// maskSubsets returns every OR-combination of masks, including zero.
func maskSubsets(masks []uint16) []uint16 {
	out := make([]uint16, 0, 1<<len(masks))
	for subset := 0; subset < (1 << len(masks)); subset++ {
		var mask uint16
		for bit := range masks {
			if subset&(1<<bit) != 0 {
				mask |= masks[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func containsMask(masks []uint16, m uint16) bool {
	for _, x := range masks {
		if x == m {
			return true
		}
	}
	return false
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// _NET_WM_STATE actions.
const (
	stateRemove = 0
	stateAdd    = 1
)

const (
	stateMaxVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	stateHidden     = "_NET_WM_STATE_HIDDEN"
)

// WindowState is the subset of _NET_WM_STATE the control surface cares about.
type WindowState struct {
	Maximized  bool
	Fullscreen bool
	Hidden     bool
}

// CreateWindow creates an unmapped, normal top-level window that asks the
// window manager for WM_DELETE_WINDOW instead of being killed on close.
func (c *Connection) CreateWindow(x, y, width, height int) (*xwindow.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	eventMask := xproto.EventMaskStructureNotify |
		xproto.EventMaskPropertyChange |
		xproto.EventMaskFocusChange
	err = win.CreateChecked(c.Root, x, y, width, height,
		xproto.CwBackPixel|xproto.CwEventMask, 0xffffff, uint32(eventMask))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := icccm.WmProtocolsSet(c.XUtil, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}
	if err := ewmh.WmWindowTypeSet(c.XUtil, win.Id, []string{"_NET_WM_WINDOW_TYPE_NORMAL"}); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to set window type: %w", err)
	}
	return win, nil
}

// SetTitle sets both the EWMH and ICCCM window names.
func (c *Connection) SetTitle(windowID xproto.Window, title string) error {
	if err := ewmh.WmNameSet(c.XUtil, windowID, title); err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmNameSet(c.XUtil, windowID, title); err != nil {
		return fmt.Errorf("failed to set WM_NAME: %w", err)
	}
	return nil
}

// SetDecorated toggles window manager decorations through _MOTIF_WM_HINTS.
func (c *Connection) SetDecorated(windowID xproto.Window, decorated bool) error {
	decoration := uint(motif.DecorationNone)
	if decorated {
		decoration = motif.DecorationAll
	}
	hints := &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: decoration,
	}
	if err := motif.WmHintsSet(c.XUtil, windowID, hints); err != nil {
		return fmt.Errorf("failed to set motif hints: %w", err)
	}
	return nil
}

// SetBackgroundPixel changes the window's background fill.
func (c *Connection) SetBackgroundPixel(windowID xproto.Window, pixel uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), windowID,
		xproto.CwBackPixel, []uint32{pixel}).Check()
}

// GetWindowState reads the window's current _NET_WM_STATE.
func (c *Connection) GetWindowState(windowID xproto.Window) (WindowState, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return WindowState{}, err
	}

	var ws WindowState
	hasMaxH := false
	hasMaxV := false
	for _, state := range states {
		switch state {
		case stateMaxHorz:
			hasMaxH = true
		case stateMaxVert:
			hasMaxV = true
		case stateFullscreen:
			ws.Fullscreen = true
		case stateHidden:
			ws.Hidden = true
		}
	}
	ws.Maximized = hasMaxH && hasMaxV
	return ws, nil
}

// SetMaximized asks the window manager to add or remove both maximized states.
func (c *Connection) SetMaximized(windowID xproto.Window, maximized bool) error {
	action := stateRemove
	if maximized {
		action = stateAdd
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, stateMaxHorz); err != nil {
		return fmt.Errorf("failed to request %s: %w", stateMaxHorz, err)
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, stateMaxVert); err != nil {
		return fmt.Errorf("failed to request %s: %w", stateMaxVert, err)
	}
	return nil
}

// SetFullscreen asks the window manager to add or remove the fullscreen state.
func (c *Connection) SetFullscreen(windowID xproto.Window, fullscreen bool) error {
	action := stateRemove
	if fullscreen {
		action = stateAdd
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, stateFullscreen); err != nil {
		return fmt.Errorf("failed to request %s: %w", stateFullscreen, err)
	}
	return nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Use EWMH MoveResize for better WM compatibility
	err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// GetGeometry returns the window rectangle in root coordinates.
func (c *Connection) GetGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// IconifyWindow minimizes a window via WM_CHANGE_STATE.
func (c *Connection) IconifyWindow(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(windowID, "WM_CHANGE_STATE", []uint32{iconicState})
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	if err := c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", []uint32{sourceIndication}); err != nil {
		return fmt.Errorf("failed to activate window: %w", err)
	}
	return nil
}

// PointerState returns the pointer position in root coordinates and the
// lowest pressed button (0 when no button is held).
func (c *Connection) PointerState() (rootX, rootY, button int, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, 0, err
	}

	masks := []uint16{
		xproto.ButtonMask1,
		xproto.ButtonMask2,
		xproto.ButtonMask3,
	}
	for i, mask := range masks {
		if reply.Mask&mask != 0 {
			button = i + 1
			break
		}
	}
	return int(reply.RootX), int(reply.RootY), button, nil
}

// StartMove hands an interactive move of windowID to the window manager via
// _NET_WM_MOVERESIZE. The pointer grab held by the client is released first.
func (c *Connection) StartMove(windowID xproto.Window, rootX, rootY, button int) error {
	const (
		directionMove    = 8
		sourceIndication = 1 // normal application
	)
	if err := xproto.UngrabPointerChecked(c.XUtil.Conn(), xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to release pointer grab: %w", err)
	}
	return c.sendRootMessage(windowID, "_NET_WM_MOVERESIZE", []uint32{
		uint32(rootX), uint32(rootY), directionMove, uint32(button), sourceIndication,
	})
}

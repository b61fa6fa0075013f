package channel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1broseidon/multiwin/internal/geometry"
)

var (
	// ErrUnknownMethod is returned for method names outside the control surface.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidArgument is returned when a required argument is missing or mistyped.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Op is one control operation. The set of implementations is closed.
type Op interface {
	Method() string
	isOp()
}

type Show struct{}

type Hide struct{}

type Center struct{}

type Focus struct{}

type ShowTitleBar struct{ Show bool }

type IsMaximized struct{}

type Maximize struct{}

type Unmaximize struct{}

type Minimize struct{}

type SetFullscreen struct{ Fullscreen bool }

// FrameOrigins documents the two frame conventions for callers.
const FrameOrigins = "getFrame returns a top-left frame: y is the top edge, measured from the bottom of the screen. " +
	"setFrame takes the native bottom-left frame: y is the bottom edge. " +
	"To pass a getFrame result back to setFrame, subtract height from y."

// SetFrame carries a frame in native bottom-left space.
type SetFrame struct{ Frame geometry.Rect }

type GetFrame struct{}

type SetTitle struct{ Title string }

type Close struct{}

type SetFrameAutosaveName struct{ Name string }

// StartDragging begins an interactive move on the next main loop turn.
type StartDragging struct{}

// StartResizing is reserved; its arguments are passed through untouched.
type StartResizing struct{ Args map[string]any }

func (Show) Method() string                 { return "show" }
func (Hide) Method() string                 { return "hide" }
func (Center) Method() string               { return "center" }
func (Focus) Method() string                { return "focus" }
func (ShowTitleBar) Method() string         { return "showTitleBar" }
func (IsMaximized) Method() string          { return "isMaximized" }
func (Maximize) Method() string             { return "maximize" }
func (Unmaximize) Method() string           { return "unmaximize" }
func (Minimize) Method() string             { return "minimize" }
func (SetFullscreen) Method() string        { return "setFullscreen" }
func (SetFrame) Method() string             { return "setFrame" }
func (GetFrame) Method() string             { return "getFrame" }
func (SetTitle) Method() string             { return "setTitle" }
func (Close) Method() string                { return "close" }
func (SetFrameAutosaveName) Method() string { return "setFrameAutosaveName" }
func (StartDragging) Method() string        { return "startDragging" }
func (StartResizing) Method() string        { return "startResizing" }

func (Show) isOp()                 {}
func (Hide) isOp()                 {}
func (Center) isOp()               {}
func (Focus) isOp()                {}
func (ShowTitleBar) isOp()         {}
func (IsMaximized) isOp()          {}
func (Maximize) isOp()             {}
func (Unmaximize) isOp()           {}
func (Minimize) isOp()             {}
func (SetFullscreen) isOp()        {}
func (SetFrame) isOp()             {}
func (GetFrame) isOp()             {}
func (SetTitle) isOp()             {}
func (Close) isOp()                {}
func (SetFrameAutosaveName) isOp() {}
func (StartDragging) isOp()        {}
func (StartResizing) isOp()        {}

type decoder func(args map[string]any) (Op, error)

func noArgs(op Op) decoder {
	return func(map[string]any) (Op, error) { return op, nil }
}

var decoders = map[string]decoder{
	"show":          noArgs(Show{}),
	"hide":          noArgs(Hide{}),
	"center":        noArgs(Center{}),
	"focus":         noArgs(Focus{}),
	"isMaximized":   noArgs(IsMaximized{}),
	"maximize":      noArgs(Maximize{}),
	"unmaximize":    noArgs(Unmaximize{}),
	"minimize":      noArgs(Minimize{}),
	"getFrame":      noArgs(GetFrame{}),
	"close":         noArgs(Close{}),
	"startDragging": noArgs(StartDragging{}),
	"showTitleBar": func(args map[string]any) (Op, error) {
		v, err := boolArg(args, "show")
		return ShowTitleBar{Show: v}, err
	},
	"setFullscreen": func(args map[string]any) (Op, error) {
		v, err := boolArg(args, "fullscreen")
		return SetFullscreen{Fullscreen: v}, err
	},
	"setFrame": func(args map[string]any) (Op, error) {
		var r geometry.Rect
		var err error
		if r.X, err = numberArg(args, "x", "left"); err != nil {
			return nil, err
		}
		if r.Y, err = numberArg(args, "y", "bottom"); err != nil {
			return nil, err
		}
		if r.Width, err = numberArg(args, "width"); err != nil {
			return nil, err
		}
		if r.Height, err = numberArg(args, "height"); err != nil {
			return nil, err
		}
		return SetFrame{Frame: r}, nil
	},
	"setTitle": func(args map[string]any) (Op, error) {
		v, err := stringArg(args, "title")
		return SetTitle{Title: v}, err
	},
	"setFrameAutosaveName": func(args map[string]any) (Op, error) {
		v, err := stringArg(args, "name")
		return SetFrameAutosaveName{Name: v}, err
	},
	"startResizing": func(args map[string]any) (Op, error) {
		return StartResizing{Args: args}, nil
	},
}

// Methods returns every supported method name, sorted.
func Methods() []string {
	out := make([]string, 0, len(decoders))
	for name := range decoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Decode turns a method name and its arguments into an Op.
func Decode(method string, args map[string]any) (Op, error) {
	dec, ok := decoders[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	op, err := dec(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return op, nil
}

func lookup(args map[string]any, keys ...string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := args[k]; ok && v != nil {
			return v, k, true
		}
	}
	return nil, keys[0], false
}

func boolArg(args map[string]any, keys ...string) (bool, error) {
	v, key, ok := lookup(args, keys...)
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a boolean", ErrInvalidArgument, key)
	}
	return b, nil
}

func stringArg(args map[string]any, keys ...string) (string, error) {
	v, key, ok := lookup(args, keys...)
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidArgument, key)
	}
	return s, nil
}

func numberArg(args map[string]any, keys ...string) (float64, error) {
	v, key, ok := lookup(args, keys...)
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidArgument, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidArgument, key)
	}
}

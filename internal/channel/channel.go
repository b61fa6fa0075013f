package channel

import (
	"fmt"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/window"
)

// Target is the control surface an Op is applied to.
type Target interface {
	Show() error
	Hide() error
	Center() error
	Focus() error
	ShowTitleBar(show bool) error
	IsMaximized() bool
	Maximize() error
	Unmaximize() error
	Minimize() error
	SetFullscreen(fullscreen bool) error
	SetFrame(frame geometry.Rect) error
	GetFrame() geometry.Rect
	SetTitle(title string) error
	Close() error
	SetFrameAutosaveName(name string) error
	StartDragging()
	StartResizing(args map[string]any)
}

var _ Target = (*window.Controller)(nil)

// Apply runs op against t. The result is nil, a bool or a geometry.Rect.
func Apply(t Target, op Op) (any, error) {
	switch op := op.(type) {
	case Show:
		return nil, t.Show()
	case Hide:
		return nil, t.Hide()
	case Center:
		return nil, t.Center()
	case Focus:
		return nil, t.Focus()
	case ShowTitleBar:
		return nil, t.ShowTitleBar(op.Show)
	case IsMaximized:
		return t.IsMaximized(), nil
	case Maximize:
		return nil, t.Maximize()
	case Unmaximize:
		return nil, t.Unmaximize()
	case Minimize:
		return nil, t.Minimize()
	case SetFullscreen:
		return nil, t.SetFullscreen(op.Fullscreen)
	case SetFrame:
		return nil, t.SetFrame(op.Frame)
	case GetFrame:
		return t.GetFrame(), nil
	case SetTitle:
		return nil, t.SetTitle(op.Title)
	case Close:
		return nil, t.Close()
	case SetFrameAutosaveName:
		return nil, t.SetFrameAutosaveName(op.Name)
	case StartDragging:
		t.StartDragging()
		return nil, nil
	case StartResizing:
		t.StartResizing(op.Args)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMethod, op)
	}
}

// Name returns the channel name bound to window id.
func Name(id window.ID) string {
	return fmt.Sprintf("multiwin/window/%d", id)
}

// Response is the reply to one Invoke.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Channel is the per-window endpoint carrying control requests.
type Channel struct {
	id     window.ID
	name   string
	target Target
}

// New binds a channel to window id.
func New(id window.ID, target Target) *Channel {
	return &Channel{id: id, name: Name(id), target: target}
}

func (c *Channel) ID() window.ID { return c.id }

func (c *Channel) Name() string { return c.name }

// Invoke decodes and applies one request.
func (c *Channel) Invoke(method string, args map[string]any) (Response, error) {
	op, err := Decode(method, args)
	if err != nil {
		return Response{Error: err.Error()}, err
	}
	result, err := Apply(c.target, op)
	if err != nil {
		return Response{Error: err.Error()}, err
	}
	return Response{Result: result}, nil
}

package mcp

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/ipc"
	"github.com/1broseidon/multiwin/internal/registry"
)

const (
	ServerName    = "multiwin"
	ServerVersion = "0.1.0"
)

// Daemon is the slice of the IPC client the tools call.
type Daemon interface {
	CreateWindow(arguments string) (*ipc.CreateWindowData, error)
	Invoke(windowID int64, method string, args map[string]any) (json.RawMessage, error)
	ListWindows() ([]registry.Info, error)
	CloseWindow(windowID int64) error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server exposing daemon windows as tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a new MCP server that forwards to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_window",
		Description: "Create a new top-level window. The arguments string is passed to the window's engine entrypoint. Returns the window id and its control channel name.",
	}, s.handleCreateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every open window with its id, title, lifecycle state and top-left-origin frame.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "invoke_window",
		Description: "Invoke a control method on a window, e.g. show, hide, focus, setTitle, setFrame, getFrame, maximize, setFullscreen. " + channel.FrameOrigins + " Call list_methods for the full set.",
	}, s.handleInvokeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. The id becomes invalid once the close completes.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_methods",
		Description: "List the control methods invoke_window accepts.",
	}, s.handleListMethods)
}

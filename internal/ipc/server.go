package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/multiwin/internal/actionlog"
	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/registry"
	"github.com/1broseidon/multiwin/internal/runtimepath"
	"github.com/1broseidon/multiwin/internal/window"
)

// Caller runs a function on the main loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

// Windows is the registry surface the server drives.
type Windows interface {
	Create(arguments string) (window.ID, error)
	Invoke(id window.ID, method string, args map[string]any) (channel.Response, error)
	Close(id window.ID) error
	List() []registry.Info
	Len() int
}

// ServerConfig wires a server to the daemon.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath()
	SocketPath  string
	BackendName string
	Windows     Windows
	Loop        Caller
	Actions     *actionlog.Logger
	// CallTimeout bounds how long a request waits for the main loop to
	// start it
	CallTimeout time.Duration
	// Screen reports the screen bounds for GET_STATUS. Optional.
	Screen func() (geometry.Rect, error)
	// Reload handles RELOAD. Optional.
	Reload func() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	backendName  string
	windows      Windows
	loop         Caller
	actions      *actionlog.Logger
	callTimeout  time.Duration
	screen       func() (geometry.Rect, error)
	reload       func() error
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if cfg.Windows == nil || cfg.Loop == nil {
		return nil, fmt.Errorf("ipc server requires a registry and a main loop")
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath:  socketPath,
		backendName: cfg.BackendName,
		windows:     cfg.Windows,
		loop:        cfg.Loop,
		actions:     cfg.Actions,
		callTimeout: timeout,
		screen:      cfg.Screen,
		reload:      cfg.Reload,
		startTime:   time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandCreateWindow:
		return s.handleCreateWindow(req.Payload)
	case CommandInvoke:
		return s.handleInvoke(req.Payload)
	case CommandListWindows:
		return s.handleListWindows()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// onLoop runs fn on the main loop. The call timeout only bounds the wait for
// the loop to pick fn up: a timed-out fn never runs, and a started fn is
// always waited for, so a reply never contradicts what happened.
func (s *Server) onLoop(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
	defer cancel()
	return s.loop.Call(ctx, fn)
}

func (s *Server) handleCreateWindow(payload json.RawMessage) *Response {
	var req CreateWindowPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
		}
	}

	var id window.ID
	err := s.onLoop(func() error {
		var err error
		id, err = s.windows.Create(req.Arguments)
		return err
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to create window: %v", err))
	}

	resp, _ := NewOKResponse(CreateWindowData{
		WindowID: int64(id),
		Channel:  channel.Name(id),
	})
	return resp
}

func (s *Server) handleInvoke(payload json.RawMessage) *Response {
	var req InvokePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid invoke payload: %v", err))
	}
	if req.Method == "" {
		return NewErrorResponse("method is required")
	}

	id := window.ID(req.WindowID)
	var result channel.Response
	err := s.onLoop(func() error {
		var err error
		result, err = s.windows.Invoke(id, req.Method, req.Args)
		return err
	})
	s.actions.LogInvoke(id, req.Method, err)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, err := NewOKResponse(result.Result)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleListWindows() *Response {
	var list []registry.Info
	err := s.onLoop(func() error {
		list = s.windows.List()
		return nil
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	if list == nil {
		list = []registry.Info{}
	}

	resp, _ := NewOKResponse(WindowsData{Windows: list})
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Backend:       s.backendName,
		WindowCount:   s.windows.Len(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if s.screen != nil {
		err := s.onLoop(func() error {
			var err error
			status.Screen, err = s.screen()
			return err
		})
		if err != nil {
			log.Printf("Failed to read screen bounds: %v", err)
		}
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}

	err := s.onLoop(func() error {
		return s.windows.Close(window.ID(req.WindowID))
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

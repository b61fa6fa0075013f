package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/multiwin/internal/geometry"
	"github.com/1broseidon/multiwin/internal/registry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandCreateWindow CommandType = "CREATE_WINDOW"
	CommandInvoke       CommandType = "INVOKE"
	CommandListWindows  CommandType = "LIST_WINDOWS"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandCloseWindow  CommandType = "CLOSE_WINDOW"
	CommandReload       CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Backend       string `json:"backend"`
	WindowCount   int    `json:"window_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	// Screen is the native screen bounds; zero when the backend cannot report it
	Screen geometry.Rect `json:"screen"`
}

// CreateWindowPayload represents the payload for CREATE_WINDOW
type CreateWindowPayload struct {
	Arguments string `json:"arguments"`
}

// CreateWindowData is returned by CREATE_WINDOW
type CreateWindowData struct {
	WindowID int64  `json:"window_id"`
	Channel  string `json:"channel"`
}

// InvokePayload represents the payload for INVOKE
type InvokePayload struct {
	WindowID int64          `json:"window_id"`
	Method   string         `json:"method"`
	Args     map[string]any `json:"args,omitempty"`
}

// WindowPayload addresses a single window
type WindowPayload struct {
	WindowID int64 `json:"window_id"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []registry.Info `json:"windows"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

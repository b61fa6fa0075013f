package mcp

import "github.com/1broseidon/multiwin/internal/registry"

// CreateWindowInput is the input for the create_window tool.
type CreateWindowInput struct {
	Arguments string `json:"arguments,omitempty" jsonschema:"Opaque string handed to the new window's engine entrypoint"`
}

// CreateWindowOutput is the output for the create_window tool.
type CreateWindowOutput struct {
	WindowID int64  `json:"window_id"`
	Channel  string `json:"channel"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []registry.Info `json:"windows"`
}

// InvokeWindowInput is the input for the invoke_window tool.
type InvokeWindowInput struct {
	WindowID int64          `json:"window_id" jsonschema:"Identifier returned by create_window"`
	Method   string         `json:"method" jsonschema:"Control method, e.g. show, setTitle, getFrame, setFrame, maximize"`
	Args     map[string]any `json:"args,omitempty" jsonschema:"Method arguments, e.g. {\"title\": \"Main\"} or {\"x\": 0, \"y\": 0, \"width\": 640, \"height\": 360}"`
}

// InvokeWindowOutput is the output for the invoke_window tool.
type InvokeWindowOutput struct {
	WindowID int64  `json:"window_id"`
	Method   string `json:"method"`
	Result   any    `json:"result,omitempty"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	WindowID int64 `json:"window_id" jsonschema:"Identifier of the window to close"`
}

// CloseWindowOutput is the output for the close_window tool.
type CloseWindowOutput struct {
	WindowID int64 `json:"window_id"`
	Closed   bool  `json:"closed"`
}

// ListMethodsInput is the input for the list_methods tool.
type ListMethodsInput struct{}

// ListMethodsOutput is the output for the list_methods tool.
type ListMethodsOutput struct {
	Methods []string `json:"methods"`
}

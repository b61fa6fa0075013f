package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/multiwin/internal/channel"
	"github.com/1broseidon/multiwin/internal/registry"
)

func (s *Server) handleCreateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateWindowInput) (*mcpsdk.CallToolResult, CreateWindowOutput, error) {
	data, err := s.daemon.CreateWindow(args.Arguments)
	if err != nil {
		return nil, CreateWindowOutput{}, err
	}
	return nil, CreateWindowOutput{WindowID: data.WindowID, Channel: data.Channel}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if windows == nil {
		windows = []registry.Info{}
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleInvokeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args InvokeWindowInput) (*mcpsdk.CallToolResult, InvokeWindowOutput, error) {
	method := strings.TrimSpace(args.Method)
	if method == "" {
		return nil, InvokeWindowOutput{}, fmt.Errorf("method is required")
	}
	// Reject unknown methods before a round trip; the daemon decodes args.
	if _, err := channel.Decode(method, nil); errors.Is(err, channel.ErrUnknownMethod) {
		return nil, InvokeWindowOutput{}, fmt.Errorf("%w (available: %s)", err, strings.Join(channel.Methods(), ", "))
	}

	raw, err := s.daemon.Invoke(args.WindowID, method, args.Args)
	if err != nil {
		return nil, InvokeWindowOutput{}, err
	}

	out := InvokeWindowOutput{WindowID: args.WindowID, Method: method}
	if len(raw) > 0 {
		var result any
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, InvokeWindowOutput{}, fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		out.Result = result
	}
	return nil, out, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, CloseWindowOutput, error) {
	if err := s.daemon.CloseWindow(args.WindowID); err != nil {
		return nil, CloseWindowOutput{WindowID: args.WindowID}, err
	}
	return nil, CloseWindowOutput{WindowID: args.WindowID, Closed: true}, nil
}

func (s *Server) handleListMethods(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMethodsInput) (*mcpsdk.CallToolResult, ListMethodsOutput, error) {
	return nil, ListMethodsOutput{Methods: channel.Methods()}, nil
}

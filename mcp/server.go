package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/loopwork-ai/mcpd/jsonrpc"
)

// Server dispatches MCP JSON-RPC methods. It holds no per-request state;
// the tool registry is read-only after NewServer returns.
type Server struct {
	registry *Registry
	info     ServerInfo
	logger   *slog.Logger
}

// ServerOption configures a Server
type ServerOption func(*Server) error

// WithLogger sets the logger used by the server
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithServerInfo sets the identity advertised in initialize responses
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) error {
		s.info = ServerInfo{Name: name, Version: version}
		return nil
	}
}

// WithTool registers a tool definition. A duplicate name or a bad input
// schema fails NewServer, surfacing the configuration error at startup.
func WithTool(definition ToolDefinition) ServerOption {
	return func(s *Server) error {
		return s.registry.Register(definition)
	}
}

// NewServer creates an MCP server instance
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		registry: NewRegistry(),
		info:     ServerInfo{Name: "mcpd", Version: "0.1.0"},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Registry returns the server's tool registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handle processes a single JSON-RPC request and returns a response, or nil
// when the method produces no body.
func (s *Server) Handle(ctx context.Context, request *jsonrpc.Request) *jsonrpc.Response {
	switch request.Method {
	case "initialize":
		return s.handleInitialize(ctx, request)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(request)
	case "tools/call":
		return s.handleToolsCall(ctx, request)
	default:
		return jsonrpc.NewErrorResponse(request.ID,
			jsonrpc.Errorf(jsonrpc.ErrMethodNotFound, "Method not found: %s", request.Method))
	}
}

func (s *Server) handleInitialize(ctx context.Context, request *jsonrpc.Request) *jsonrpc.Response {
	version := ProtocolVersionFromContext(ctx)
	s.logger.Debug("initialize", "protocol_version", version)

	return jsonrpc.NewResponse(request.ID, InitializeResponse{
		ProtocolVersion: version,
		Capabilities:    ServerCapabilities{},
		ServerInfo:      s.info,
	})
}

func (s *Server) handleToolsList(request *jsonrpc.Request) *jsonrpc.Response {
	tools := s.registry.List()
	s.logger.Debug("tools/list", "count", len(tools))
	return jsonrpc.NewResponse(request.ID, ToolsListResponse{Tools: tools})
}

func (s *Server) handleToolsCall(ctx context.Context, request *jsonrpc.Request) *jsonrpc.Response {
	var params ToolCallParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(request.ID,
			jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
	}

	result, err := s.registry.Call(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, ErrUnknownTool):
		return jsonrpc.NewErrorResponse(request.ID,
			jsonrpc.Errorf(jsonrpc.ErrMethodNotFound, "%s", err))
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrUpstream):
		return jsonrpc.NewErrorResponse(request.ID,
			jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
	case err != nil:
		s.logger.Error("tool call failed", "tool", params.Name, "error", err)
		return jsonrpc.NewErrorResponse(request.ID,
			jsonrpc.NewError(jsonrpc.ErrInternal, nil))
	}

	s.logger.Debug("tools/call", "tool", params.Name)
	return jsonrpc.NewResponse(request.ID, result)
}

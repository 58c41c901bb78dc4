package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Tool represents a single tool in the tools/list response
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ToolsListResponse represents the response for the tools/list method
type ToolsListResponse struct {
	Tools []Tool `json:"tools"`
}

// ToolCallParams represents the parameters for the tools/call method
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Content represents a single content item in a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewTextContent creates a text content item
func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// CallToolResult represents the result of a tool call
type CallToolResult struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError"`
}

// NewToolResult creates a successful CallToolResult with a single text
// content item and the given structured payload
func NewToolResult(text string, structured any) *CallToolResult {
	return &CallToolResult{
		Content:           []Content{NewTextContent(text)},
		StructuredContent: structured,
	}
}

// ServerInfo identifies an MCP server implementation
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolCapabilities advertises tool support; the MCP initialize response
// expects an object here even when empty
type ToolCapabilities struct{}

// ServerCapabilities represents the server's supported capabilities
type ServerCapabilities struct {
	Tools ToolCapabilities `json:"tools"`
}

// InitializeResponse represents the server's response to an initialize
// request
type InitializeResponse struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool call failure modes. Handlers wrap these sentinels so the dispatcher
// can map them onto the right JSON-RPC error codes.
var (
	// ErrUnknownTool is returned by Call when no tool is registered under
	// the requested name.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArgument indicates the caller supplied arguments the tool
	// cannot accept.
	ErrInvalidArgument = errors.New("invalid arguments")

	// ErrUpstream indicates a tool's external dependency failed.
	ErrUpstream = errors.New("upstream request failed")
)

// ToolHandler implements a single tool. Arguments have already been checked
// against the tool's input schema; handlers still validate semantic
// constraints the schema cannot express.
type ToolHandler func(ctx context.Context, args map[string]any) (*CallToolResult, error)

// ToolDefinition describes a callable tool: its unique name, a description
// for the client, a JSON Schema for its arguments, and the handler invoked
// by tools/call.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     ToolHandler
}

type registeredTool struct {
	definition ToolDefinition
	resolved   *jsonschema.Resolved
}

// Registry holds tool definitions and dispatches calls by name. It is
// populated once at startup and read-only afterwards, so no locking is
// needed at request time.
type Registry struct {
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool definition. Duplicate names and unresolvable input
// schemas are configuration errors; callers surface them at startup.
func (r *Registry) Register(definition ToolDefinition) error {
	if definition.Name == "" {
		return errors.New("tool name is required")
	}
	if definition.Handler == nil {
		return fmt.Errorf("tool %q has no handler", definition.Name)
	}
	if _, exists := r.tools[definition.Name]; exists {
		return fmt.Errorf("tool already registered: %s", definition.Name)
	}

	var resolved *jsonschema.Resolved
	if definition.InputSchema != nil {
		var err error
		resolved, err = definition.InputSchema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return fmt.Errorf("resolving input schema for tool %q: %w", definition.Name, err)
		}
	}

	r.tools[definition.Name] = registeredTool{definition: definition, resolved: resolved}
	return nil
}

// List returns the registered tools sorted by name ascending
func (r *Registry) List() []Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		definition := r.tools[name].definition
		tools = append(tools, Tool{
			Name:        definition.Name,
			Description: definition.Description,
			InputSchema: definition.InputSchema,
		})
	}
	return tools
}

// Call invokes the named tool with the given arguments. A nil arguments map
// defaults to an empty object. Arguments are validated against the tool's
// input schema before the handler runs; schema violations are reported as
// ErrInvalidArgument, and handler errors pass through unchanged.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if tool.resolved != nil {
		if err := tool.resolved.Validate(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}

	return tool.definition.Handler(ctx, args)
}

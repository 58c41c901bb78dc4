// Package tools provides the built-in tool handlers exposed by mcpd: a
// locale date/time lookup and a Wikipedia article fetch. Each tool validates
// its own arguments and reports failures with the mcp error sentinels.
package tools

import "github.com/google/jsonschema-go/jsonschema"

// falseSchema returns the boolean false schema; jsonschema-go renders
// {not: {}} as `false`, which is how additionalProperties is disabled.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

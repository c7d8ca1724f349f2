package domain

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// ToolDefinition represents an MCP tool definition.
// This describes a tool that can be called by MCP clients.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ToolRequest represents an MCP tool call request.
// This is the request format when a client invokes a tool.
type ToolRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResponse represents an MCP tool call response.
// This is the response format returned to the client after tool execution.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of content in the response.
type ContentBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// JSONSchema renders the parameter schema as an MCP input schema.
func (s ParamSchema) JSONSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(s)),
	}
	for _, name := range s.Names() {
		spec := s[name]
		schema.Properties[name] = &jsonschema.Schema{
			Type:        string(spec.Type),
			Description: spec.Description,
		}
	}
	schema.Required = s.Required()
	return schema
}

// Definition returns the MCP discovery view of the descriptor.
func (d ToolDescriptor) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.Schema.JSONSchema(),
	}
}

package domain

import (
	"context"
	"sort"
)

// ParamType is the declared JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamSpec declares one tool parameter.
type ParamSpec struct {
	Type        ParamType
	Required    bool
	Description string
}

// ParamSchema maps parameter names to their declarations.
type ParamSchema map[string]ParamSpec

// Names returns the declared parameter names in sorted order. Validation walks
// parameters in this order so the first reported violation is deterministic.
func (s ParamSchema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the sorted names of required parameters.
func (s ParamSchema) Required() []string {
	var required []string
	for _, name := range s.Names() {
		if s[name].Required {
			required = append(required, name)
		}
	}
	return required
}

// ToolHandlerFunc executes a tool with parameters that already passed schema validation.
// Failures should be returned as *Failure; any other error is reported as Internal.
type ToolHandlerFunc func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolDescriptor is the registered metadata for one tool name.
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      ParamSchema
	Handler     ToolHandlerFunc
	// Service is the resource service backing the handler. Together with Handler
	// it identifies the descriptor for idempotent re-registration.
	Service interface{}
}

// ToolProvider groups the descriptors for one Redmine resource.
type ToolProvider interface {
	// Resource returns the resource identifier, e.g. "issues".
	Resource() string

	// Tools returns the descriptors to register, in presentation order.
	Tools() []ToolDescriptor
}

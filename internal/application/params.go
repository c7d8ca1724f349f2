package application

import (
	"strconv"

	"redmine-mcp-server/internal/domain"
)

// Readers for parameters that already passed validateParams. Missing optional
// parameters read as the zero value.

func stringParam(params map[string]interface{}, name string) string {
	s, _ := params[name].(string)
	return s
}

func intParam(params map[string]interface{}, name string) int64 {
	n, _ := params[name].(int64)
	return n
}

// optionalIntParam returns nil when the parameter was not supplied, so zero stays
// distinguishable from absent in request bodies.
func optionalIntParam(params map[string]interface{}, name string) *int64 {
	n, ok := params[name].(int64)
	if !ok {
		return nil
	}
	return &n
}

func optionalBoolParam(params map[string]interface{}, name string) *bool {
	b, ok := params[name].(bool)
	if !ok {
		return nil
	}
	return &b
}

// idParam reads a parameter that Redmine accepts either as a numeric id or an
// identifier string, e.g. a project.
func idParam(params map[string]interface{}, name string) string {
	switch v := params[name].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func listOptions(params map[string]interface{}) domain.ListOptions {
	return domain.ListOptions{
		Limit:  intParam(params, "limit"),
		Offset: intParam(params, "offset"),
	}
}

// requireAnyParam fails unless at least one of names was supplied. Update tools
// use it so an update with nothing to change is rejected before any request.
func requireAnyParam(params map[string]interface{}, names ...string) error {
	for _, name := range names {
		if _, ok := params[name]; ok {
			return nil
		}
	}
	return domain.NewFailure(domain.KindInvalidParams, "at least one field to update is required")
}

// paginationSchema is merged into list tool schemas.
func paginationSchema(schema domain.ParamSchema) domain.ParamSchema {
	schema["limit"] = domain.ParamSpec{Type: domain.TypeInteger, Description: "Maximum number of results (Redmine caps this at 100)"}
	schema["offset"] = domain.ParamSpec{Type: domain.TypeInteger, Description: "Number of results to skip"}
	return schema
}

package application

import (
	"context"

	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

// Tool names for version operations.
const (
	ToolListVersions  = "redmine_list_versions"
	ToolGetVersion    = "redmine_get_version"
	ToolCreateVersion = "redmine_create_version"
	ToolUpdateVersion = "redmine_update_version"
)

var versionFieldNames = []string{"name", "status", "sharing", "due_date", "description"}

// VersionTools exposes VersionService as MCP tools.
type VersionTools struct {
	service *infrastructure.VersionService
}

// NewVersionTools creates the version tool provider.
func NewVersionTools(service *infrastructure.VersionService) *VersionTools {
	return &VersionTools{service: service}
}

// Resource returns the resource identifier.
func (t *VersionTools) Resource() string {
	return "versions"
}

// Tools returns the version tool descriptors.
func (t *VersionTools) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolListVersions,
			Description: "List the versions (milestones) of a Redmine project",
			Schema: domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
			},
			Handler: t.listVersions,
			Service: t.service,
		},
		{
			Name:        ToolGetVersion,
			Description: "Retrieve a Redmine version by id",
			Schema: domain.ParamSchema{
				"version_id": {Type: domain.TypeInteger, Required: true, Description: "Version id"},
			},
			Handler: t.getVersion,
			Service: t.service,
		},
		{
			Name:        ToolCreateVersion,
			Description: "Create a version in a Redmine project",
			Schema: versionFieldSchema(domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
				"name":       {Type: domain.TypeString, Required: true, Description: "Version name"},
			}),
			Handler: t.createVersion,
			Service: t.service,
		},
		{
			Name:        ToolUpdateVersion,
			Description: "Update a Redmine version. Supply at least one field to change",
			Schema: versionFieldSchema(domain.ParamSchema{
				"version_id": {Type: domain.TypeInteger, Required: true, Description: "Version id"},
			}),
			Handler: t.updateVersion,
			Service: t.service,
		},
	}
}

func versionFieldSchema(schema domain.ParamSchema) domain.ParamSchema {
	fields := domain.ParamSchema{
		"name":        {Type: domain.TypeString, Description: "Version name"},
		"status":      {Type: domain.TypeString, Description: "open, locked or closed"},
		"sharing":     {Type: domain.TypeString, Description: "none, descendants, hierarchy, tree or system"},
		"due_date":    {Type: domain.TypeString, Description: "Due date (YYYY-MM-DD)"},
		"description": {Type: domain.TypeString, Description: "Version description"},
	}
	for name, spec := range fields {
		if _, ok := schema[name]; !ok {
			schema[name] = spec
		}
	}
	return schema
}

func versionFields(params map[string]interface{}) domain.VersionFields {
	return domain.VersionFields{
		Name:        stringParam(params, "name"),
		Status:      stringParam(params, "status"),
		Sharing:     stringParam(params, "sharing"),
		DueDate:     stringParam(params, "due_date"),
		Description: stringParam(params, "description"),
	}
}

func (t *VersionTools) listVersions(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.List(ctx, stringParam(params, "project_id"))
}

func (t *VersionTools) getVersion(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Get(ctx, intParam(params, "version_id"))
}

func (t *VersionTools) createVersion(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Create(ctx, stringParam(params, "project_id"), versionFields(params))
}

func (t *VersionTools) updateVersion(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := requireAnyParam(params, versionFieldNames...); err != nil {
		return nil, err
	}
	return t.service.Update(ctx, intParam(params, "version_id"), versionFields(params))
}

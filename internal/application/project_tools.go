package application

import (
	"context"

	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

// Tool names for project operations.
const (
	ToolListProjects  = "redmine_list_projects"
	ToolGetProject    = "redmine_get_project"
	ToolCreateProject = "redmine_create_project"
	ToolUpdateProject = "redmine_update_project"
)

var projectFieldNames = []string{"name", "identifier", "description", "homepage", "is_public", "parent_id"}

// ProjectTools exposes ProjectService as MCP tools.
type ProjectTools struct {
	service *infrastructure.ProjectService
}

// NewProjectTools creates the project tool provider.
func NewProjectTools(service *infrastructure.ProjectService) *ProjectTools {
	return &ProjectTools{service: service}
}

// Resource returns the resource identifier.
func (t *ProjectTools) Resource() string {
	return "projects"
}

// Tools returns the project tool descriptors.
func (t *ProjectTools) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolListProjects,
			Description: "List Redmine projects visible to the configured API key",
			Schema: paginationSchema(domain.ParamSchema{
				"include": {Type: domain.TypeString, Description: "Comma-separated associations: trackers, issue_categories, enabled_modules"},
			}),
			Handler: t.listProjects,
			Service: t.service,
		},
		{
			Name:        ToolGetProject,
			Description: "Retrieve a Redmine project by id or identifier",
			Schema: domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
				"include":    {Type: domain.TypeString, Description: "Comma-separated associations: trackers, issue_categories, enabled_modules"},
			},
			Handler: t.getProject,
			Service: t.service,
		},
		{
			Name:        ToolCreateProject,
			Description: "Create a Redmine project",
			Schema: projectFieldSchema(domain.ParamSchema{
				"name":       {Type: domain.TypeString, Required: true, Description: "Project name"},
				"identifier": {Type: domain.TypeString, Required: true, Description: "Unique identifier used in URLs"},
			}),
			Handler: t.createProject,
			Service: t.service,
		},
		{
			Name:        ToolUpdateProject,
			Description: "Update a Redmine project. Supply at least one field to change",
			Schema: projectFieldSchema(domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
			}),
			Handler: t.updateProject,
			Service: t.service,
		},
	}
}

func projectFieldSchema(schema domain.ParamSchema) domain.ParamSchema {
	fields := domain.ParamSchema{
		"name":        {Type: domain.TypeString, Description: "Project name"},
		"identifier":  {Type: domain.TypeString, Description: "Unique identifier used in URLs"},
		"description": {Type: domain.TypeString, Description: "Project description"},
		"homepage":    {Type: domain.TypeString, Description: "Project homepage URL"},
		"is_public":   {Type: domain.TypeBoolean, Description: "Whether the project is public"},
		"parent_id":   {Type: domain.TypeInteger, Description: "Parent project id"},
	}
	for name, spec := range fields {
		if _, ok := schema[name]; !ok {
			schema[name] = spec
		}
	}
	return schema
}

func projectFields(params map[string]interface{}) domain.ProjectFields {
	return domain.ProjectFields{
		Name:        stringParam(params, "name"),
		Identifier:  stringParam(params, "identifier"),
		Description: stringParam(params, "description"),
		Homepage:    stringParam(params, "homepage"),
		IsPublic:    optionalBoolParam(params, "is_public"),
		ParentID:    intParam(params, "parent_id"),
	}
}

func (t *ProjectTools) listProjects(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.List(ctx, listOptions(params), stringParam(params, "include"))
}

func (t *ProjectTools) getProject(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Get(ctx, stringParam(params, "project_id"), stringParam(params, "include"))
}

func (t *ProjectTools) createProject(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Create(ctx, projectFields(params))
}

func (t *ProjectTools) updateProject(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := requireAnyParam(params, projectFieldNames...); err != nil {
		return nil, err
	}
	return t.service.Update(ctx, stringParam(params, "project_id"), projectFields(params))
}

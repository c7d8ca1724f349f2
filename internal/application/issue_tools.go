package application

import (
	"context"

	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

// Tool names for issue operations.
const (
	ToolListIssues  = "redmine_list_issues"
	ToolGetIssue    = "redmine_get_issue"
	ToolCreateIssue = "redmine_create_issue"
	ToolUpdateIssue = "redmine_update_issue"
	ToolDeleteIssue = "redmine_delete_issue"
)

// issueFieldNames are the writable issue fields accepted by update.
var issueFieldNames = []string{
	"project_id", "tracker_id", "status_id", "priority_id", "subject", "description",
	"assigned_to_id", "fixed_version_id", "parent_issue_id", "start_date", "due_date",
	"done_ratio", "notes",
}

// IssueTools exposes IssueService as MCP tools.
type IssueTools struct {
	service *infrastructure.IssueService
}

// NewIssueTools creates the issue tool provider.
func NewIssueTools(service *infrastructure.IssueService) *IssueTools {
	return &IssueTools{service: service}
}

// Resource returns the resource identifier.
func (t *IssueTools) Resource() string {
	return "issues"
}

// Tools returns the issue tool descriptors.
func (t *IssueTools) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolListIssues,
			Description: "List Redmine issues, optionally filtered by project, tracker, status or assignee",
			Schema: paginationSchema(domain.ParamSchema{
				"project_id":     {Type: domain.TypeString, Description: "Project id or identifier"},
				"tracker_id":     {Type: domain.TypeInteger, Description: "Tracker id"},
				"status_id":      {Type: domain.TypeString, Description: "'open', 'closed', '*' for all, or a status id"},
				"assigned_to_id": {Type: domain.TypeString, Description: "User id, or 'me'"},
				"sort":           {Type: domain.TypeString, Description: "Sort column, e.g. 'updated_on:desc'"},
			}),
			Handler: t.listIssues,
			Service: t.service,
		},
		{
			Name:        ToolGetIssue,
			Description: "Retrieve a Redmine issue by id",
			Schema: domain.ParamSchema{
				"issue_id": {Type: domain.TypeInteger, Required: true, Description: "Issue id"},
				"include":  {Type: domain.TypeString, Description: "Comma-separated associations: children, attachments, relations, changesets, journals, watchers"},
			},
			Handler: t.getIssue,
			Service: t.service,
		},
		{
			Name:        ToolCreateIssue,
			Description: "Create a Redmine issue",
			Schema: issueFieldSchema(domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
				"subject":    {Type: domain.TypeString, Required: true, Description: "Issue subject"},
			}),
			Handler: t.createIssue,
			Service: t.service,
		},
		{
			Name:        ToolUpdateIssue,
			Description: "Update a Redmine issue. Supply at least one field to change; 'notes' adds a journal entry",
			Schema: issueFieldSchema(domain.ParamSchema{
				"issue_id": {Type: domain.TypeInteger, Required: true, Description: "Issue id"},
			}),
			Handler: t.updateIssue,
			Service: t.service,
		},
		{
			Name:        ToolDeleteIssue,
			Description: "Delete a Redmine issue",
			Schema: domain.ParamSchema{
				"issue_id": {Type: domain.TypeInteger, Required: true, Description: "Issue id"},
			},
			Handler: t.deleteIssue,
			Service: t.service,
		},
	}
}

// issueFieldSchema adds the optional writable issue fields to schema. Entries already
// present in schema win.
func issueFieldSchema(schema domain.ParamSchema) domain.ParamSchema {
	fields := domain.ParamSchema{
		"project_id":       {Type: domain.TypeString, Description: "Project id or identifier"},
		"tracker_id":       {Type: domain.TypeInteger, Description: "Tracker id"},
		"status_id":        {Type: domain.TypeInteger, Description: "Status id"},
		"priority_id":      {Type: domain.TypeInteger, Description: "Priority id"},
		"subject":          {Type: domain.TypeString, Description: "Issue subject"},
		"description":      {Type: domain.TypeString, Description: "Issue description"},
		"assigned_to_id":   {Type: domain.TypeInteger, Description: "Assignee user id"},
		"fixed_version_id": {Type: domain.TypeInteger, Description: "Target version id"},
		"parent_issue_id":  {Type: domain.TypeInteger, Description: "Parent issue id"},
		"start_date":       {Type: domain.TypeString, Description: "Start date (YYYY-MM-DD)"},
		"due_date":         {Type: domain.TypeString, Description: "Due date (YYYY-MM-DD)"},
		"done_ratio":       {Type: domain.TypeInteger, Description: "Percent done (0-100)"},
		"notes":            {Type: domain.TypeString, Description: "Journal note"},
	}
	for name, spec := range fields {
		if _, ok := schema[name]; !ok {
			schema[name] = spec
		}
	}
	return schema
}

func issueFields(params map[string]interface{}) domain.IssueFields {
	return domain.IssueFields{
		ProjectID:      idParam(params, "project_id"),
		TrackerID:      intParam(params, "tracker_id"),
		StatusID:       intParam(params, "status_id"),
		PriorityID:     intParam(params, "priority_id"),
		Subject:        stringParam(params, "subject"),
		Description:    stringParam(params, "description"),
		AssignedToID:   intParam(params, "assigned_to_id"),
		FixedVersionID: intParam(params, "fixed_version_id"),
		ParentIssueID:  intParam(params, "parent_issue_id"),
		StartDate:      stringParam(params, "start_date"),
		DueDate:        stringParam(params, "due_date"),
		DoneRatio:      optionalIntParam(params, "done_ratio"),
		Notes:          stringParam(params, "notes"),
	}
}

func (t *IssueTools) listIssues(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.List(ctx, domain.IssueFilter{
		ListOptions:  listOptions(params),
		ProjectID:    stringParam(params, "project_id"),
		TrackerID:    intParam(params, "tracker_id"),
		StatusID:     stringParam(params, "status_id"),
		AssignedToID: stringParam(params, "assigned_to_id"),
		Sort:         stringParam(params, "sort"),
	})
}

func (t *IssueTools) getIssue(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Get(ctx, intParam(params, "issue_id"), stringParam(params, "include"))
}

func (t *IssueTools) createIssue(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Create(ctx, issueFields(params))
}

func (t *IssueTools) updateIssue(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := requireAnyParam(params, issueFieldNames...); err != nil {
		return nil, err
	}
	return t.service.Update(ctx, intParam(params, "issue_id"), issueFields(params))
}

func (t *IssueTools) deleteIssue(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Delete(ctx, intParam(params, "issue_id"))
}

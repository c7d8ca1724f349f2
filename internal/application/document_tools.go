package application

import (
	"context"

	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

const (
	ToolListDocuments = "redmine_list_documents"
	ToolGetDocument   = "redmine_get_document"
)

// DocumentTools exposes DocumentService as MCP tools.
type DocumentTools struct {
	service *infrastructure.DocumentService
}

func NewDocumentTools(service *infrastructure.DocumentService) *DocumentTools {
	return &DocumentTools{service: service}
}

func (t *DocumentTools) Resource() string {
	return "documents"
}

func (t *DocumentTools) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolListDocuments,
			Description: "List the documents of a Redmine project",
			Schema: domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Required: true, Description: "Project id or identifier"},
			},
			Handler: t.listDocuments,
			Service: t.service,
		},
		{
			Name:        ToolGetDocument,
			Description: "Retrieve a Redmine document and its attachments",
			Schema: domain.ParamSchema{
				"document_id": {Type: domain.TypeInteger, Required: true, Description: "Document id"},
			},
			Handler: t.getDocument,
			Service: t.service,
		},
	}
}

func (t *DocumentTools) listDocuments(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.List(ctx, stringParam(params, "project_id"))
}

func (t *DocumentTools) getDocument(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Get(ctx, intParam(params, "document_id"))
}

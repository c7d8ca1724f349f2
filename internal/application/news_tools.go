package application

import (
	"context"

	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

const (
	ToolListNews = "redmine_list_news"
	ToolGetNews  = "redmine_get_news"
)

// NewsTools exposes NewsService as MCP tools.
type NewsTools struct {
	service *infrastructure.NewsService
}

func NewNewsTools(service *infrastructure.NewsService) *NewsTools {
	return &NewsTools{service: service}
}

func (t *NewsTools) Resource() string {
	return "news"
}

func (t *NewsTools) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolListNews,
			Description: "List Redmine news, across all projects or for one project",
			Schema: paginationSchema(domain.ParamSchema{
				"project_id": {Type: domain.TypeString, Description: "Project id or identifier"},
			}),
			Handler: t.listNews,
			Service: t.service,
		},
		{
			Name:        ToolGetNews,
			Description: "Retrieve a Redmine news item by id",
			Schema: domain.ParamSchema{
				"news_id": {Type: domain.TypeInteger, Required: true, Description: "News id"},
			},
			Handler: t.getNews,
			Service: t.service,
		},
	}
}

func (t *NewsTools) listNews(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.List(ctx, stringParam(params, "project_id"), listOptions(params))
}

func (t *NewsTools) getNews(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return t.service.Get(ctx, intParam(params, "news_id"))
}

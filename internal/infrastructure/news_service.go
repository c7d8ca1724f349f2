package infrastructure

import (
	"context"

	"redmine-mcp-server/internal/domain"
)

// NewsService wraps the read-only Redmine news endpoints.
type NewsService struct {
	resourceService
}

// NewNewsService creates a NewsService on top of exec.
func NewNewsService(exec Executor) *NewsService {
	return &NewsService{resourceService{exec: exec}}
}

// List returns news across all projects, or for one project when projectID is set.
func (s *NewsService) List(ctx context.Context, projectID string, opts domain.ListOptions) (interface{}, error) {
	path := "/news.json"
	if projectID != "" {
		path = projectScopedPath(projectID, "news")
	}
	return s.get(ctx, path, pageQuery(opts))
}

// Get returns one news item.
func (s *NewsService) Get(ctx context.Context, id int64) (interface{}, error) {
	return s.get(ctx, resourcePath("news", idString(id)), nil)
}

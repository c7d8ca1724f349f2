package infrastructure

import (
	"context"
	"net/http"

	"redmine-mcp-server/internal/domain"
)

// ProjectService wraps the Redmine projects endpoints.
type ProjectService struct {
	resourceService
}

// NewProjectService creates a ProjectService on top of exec.
func NewProjectService(exec Executor) *ProjectService {
	return &ProjectService{resourceService{exec: exec}}
}

// List returns the projects visible to the API key.
func (s *ProjectService) List(ctx context.Context, opts domain.ListOptions, include string) (interface{}, error) {
	query := pageQuery(opts)
	if include != "" {
		query["include"] = include
	}
	return s.get(ctx, "/projects.json", query)
}

// Get returns one project by numeric id or identifier.
func (s *ProjectService) Get(ctx context.Context, id string, include string) (interface{}, error) {
	query := map[string]string{}
	if include != "" {
		query["include"] = include
	}
	return s.get(ctx, resourcePath("projects", id), query)
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, fields domain.ProjectFields) (interface{}, error) {
	return s.send(ctx, http.MethodPost, "/projects.json", domain.ProjectPayload{Project: fields})
}

// Update changes a project.
func (s *ProjectService) Update(ctx context.Context, id string, fields domain.ProjectFields) (interface{}, error) {
	return s.send(ctx, http.MethodPut, resourcePath("projects", id), domain.ProjectPayload{Project: fields})
}

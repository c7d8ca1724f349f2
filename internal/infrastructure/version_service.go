package infrastructure

import (
	"context"
	"net/http"

	"redmine-mcp-server/internal/domain"
)

// VersionService wraps the Redmine versions endpoints. Versions always belong to a project.
type VersionService struct {
	resourceService
}

// NewVersionService creates a VersionService on top of exec.
func NewVersionService(exec Executor) *VersionService {
	return &VersionService{resourceService{exec: exec}}
}

// List returns the versions of a project, including versions shared with it.
func (s *VersionService) List(ctx context.Context, projectID string) (interface{}, error) {
	return s.get(ctx, projectScopedPath(projectID, "versions"), nil)
}

// Get returns one version.
func (s *VersionService) Get(ctx context.Context, id int64) (interface{}, error) {
	return s.get(ctx, resourcePath("versions", idString(id)), nil)
}

// Create adds a version to a project.
func (s *VersionService) Create(ctx context.Context, projectID string, fields domain.VersionFields) (interface{}, error) {
	return s.send(ctx, http.MethodPost, projectScopedPath(projectID, "versions"), domain.VersionPayload{Version: fields})
}

// Update changes a version.
func (s *VersionService) Update(ctx context.Context, id int64, fields domain.VersionFields) (interface{}, error) {
	return s.send(ctx, http.MethodPut, resourcePath("versions", idString(id)), domain.VersionPayload{Version: fields})
}

package infrastructure

import (
	"context"
)

// DocumentService wraps the Redmine project documents endpoints.
type DocumentService struct {
	resourceService
}

// NewDocumentService creates a DocumentService on top of exec.
func NewDocumentService(exec Executor) *DocumentService {
	return &DocumentService{resourceService{exec: exec}}
}

// List returns the documents of a project.
func (s *DocumentService) List(ctx context.Context, projectID string) (interface{}, error) {
	return s.get(ctx, projectScopedPath(projectID, "documents"), nil)
}

// Get returns one document with its attachments.
func (s *DocumentService) Get(ctx context.Context, id int64) (interface{}, error) {
	return s.get(ctx, resourcePath("documents", idString(id)), map[string]string{"include": "attachments"})
}

package infrastructure

import (
	"context"
	"net/http"
	"strconv"

	"redmine-mcp-server/internal/domain"
)

// IssueService wraps the Redmine issues endpoints.
type IssueService struct {
	resourceService
}

// NewIssueService creates an IssueService on top of exec.
func NewIssueService(exec Executor) *IssueService {
	return &IssueService{resourceService{exec: exec}}
}

// List returns issues matching filter. Redmine only lists open issues unless a
// status filter is given.
func (s *IssueService) List(ctx context.Context, filter domain.IssueFilter) (interface{}, error) {
	query := pageQuery(filter.ListOptions)
	if filter.ProjectID != "" {
		query["project_id"] = filter.ProjectID
	}
	if filter.TrackerID > 0 {
		query["tracker_id"] = strconv.FormatInt(filter.TrackerID, 10)
	}
	if filter.StatusID != "" {
		query["status_id"] = filter.StatusID
	}
	if filter.AssignedToID != "" {
		query["assigned_to_id"] = filter.AssignedToID
	}
	if filter.Sort != "" {
		query["sort"] = filter.Sort
	}
	return s.get(ctx, "/issues.json", query)
}

// Get returns one issue. include is a comma-separated list of associations such as
// "journals,attachments".
func (s *IssueService) Get(ctx context.Context, id int64, include string) (interface{}, error) {
	query := map[string]string{}
	if include != "" {
		query["include"] = include
	}
	return s.get(ctx, resourcePath("issues", idString(id)), query)
}

// Create creates an issue and returns Redmine's representation of it.
func (s *IssueService) Create(ctx context.Context, fields domain.IssueFields) (interface{}, error) {
	return s.send(ctx, http.MethodPost, "/issues.json", domain.IssuePayload{Issue: fields})
}

// Update changes an issue. Redmine answers 204 No Content, so the payload is empty.
func (s *IssueService) Update(ctx context.Context, id int64, fields domain.IssueFields) (interface{}, error) {
	return s.send(ctx, http.MethodPut, resourcePath("issues", idString(id)), domain.IssuePayload{Issue: fields})
}

// Delete removes an issue.
func (s *IssueService) Delete(ctx context.Context, id int64) (interface{}, error) {
	return s.do(ctx, domain.NewOutboundRequest(http.MethodDelete, resourcePath("issues", idString(id))))
}

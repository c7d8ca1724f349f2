package application

import (
	"redmine-mcp-server/internal/domain"
	"redmine-mcp-server/internal/infrastructure"
)

// DefaultProviders builds one tool provider per Redmine resource, all sharing exec.
// The order here is the order tools/list presents them in.
func DefaultProviders(exec infrastructure.Executor) []domain.ToolProvider {
	return []domain.ToolProvider{
		NewIssueTools(infrastructure.NewIssueService(exec)),
		NewProjectTools(infrastructure.NewProjectService(exec)),
		NewVersionTools(infrastructure.NewVersionService(exec)),
		NewNewsTools(infrastructure.NewNewsService(exec)),
		NewDocumentTools(infrastructure.NewDocumentService(exec)),
	}
}

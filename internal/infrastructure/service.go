package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"redmine-mcp-server/internal/domain"
)

// resourceService is embedded by every Redmine resource service.
type resourceService struct {
	exec Executor
}

func (s resourceService) do(ctx context.Context, req domain.OutboundRequest) (interface{}, error) {
	return s.exec.Execute(ctx, req).Unwrap()
}

func (s resourceService) get(ctx context.Context, path string, query map[string]string) (interface{}, error) {
	req := domain.NewOutboundRequest(http.MethodGet, path)
	for key, value := range query {
		req = req.WithQuery(key, value)
	}
	return s.do(ctx, req)
}

func (s resourceService) send(ctx context.Context, method, path string, body interface{}) (interface{}, error) {
	return s.do(ctx, domain.NewOutboundRequest(method, path).WithBody(body))
}

// pageQuery renders Redmine's limit/offset pagination parameters.
func pageQuery(opts domain.ListOptions) map[string]string {
	query := make(map[string]string)
	if opts.Limit > 0 {
		query["limit"] = strconv.FormatInt(opts.Limit, 10)
	}
	if opts.Offset > 0 {
		query["offset"] = strconv.FormatInt(opts.Offset, 10)
	}
	return query
}

// resourcePath builds "/<collection>/<id>.json" with the id escaped.
func resourcePath(collection, id string) string {
	return fmt.Sprintf("/%s/%s.json", collection, url.PathEscape(id))
}

// projectScopedPath builds "/projects/<project>/<collection>.json".
func projectScopedPath(projectID, collection string) string {
	return fmt.Sprintf("/projects/%s/%s.json", url.PathEscape(projectID), collection)
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

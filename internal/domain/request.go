package domain

import (
	"time"
)

// OutboundRequest describes one call against the Redmine REST API.
// It is built fresh per tool invocation and is never mutated by the Transport Client,
// so every retry reconstructs an identical HTTP request from it.
type OutboundRequest struct {
	Method string
	// Path is relative to the configured base URL, e.g. "/issues/42.json".
	Path  string
	Query map[string]string
	// Body is JSON-encoded when non-nil.
	Body interface{}
	// Timeout overrides the client's default per-attempt timeout when positive.
	Timeout time.Duration
}

// NewOutboundRequest creates a request with an empty query.
func NewOutboundRequest(method, path string) OutboundRequest {
	return OutboundRequest{
		Method: method,
		Path:   path,
		Query:  make(map[string]string),
	}
}

// WithQuery returns a copy with key set to value. Empty values are skipped.
func (r OutboundRequest) WithQuery(key, value string) OutboundRequest {
	if value == "" {
		return r
	}
	query := make(map[string]string, len(r.Query)+1)
	for k, v := range r.Query {
		query[k] = v
	}
	query[key] = value
	r.Query = query
	return r
}

// WithBody returns a copy carrying body.
func (r OutboundRequest) WithBody(body interface{}) OutboundRequest {
	r.Body = body
	return r
}

package domain

// ResponseMapper converts invocation results to MCP tool responses.
type ResponseMapper interface {
	// MapResult renders the result envelope as MCP content. Failures become
	// responses with IsError set rather than Go errors.
	MapResult(result InvocationResult) (*ToolResponse, error)
}

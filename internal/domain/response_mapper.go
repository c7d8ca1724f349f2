package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
// It serializes the result envelope as indented JSON text content.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapResult converts an InvocationResult to MCP format.
// Paginated Redmine collections get an extra content block summarising the page.
func (m *DefaultResponseMapper) MapResult(result InvocationResult) (*ToolResponse, error) {
	envelope := result.Envelope()

	jsonBytes, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result envelope: %w", err)
	}

	response := &ToolResponse{
		Content: []ContentBlock{
			{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
		IsError: !envelope.OK,
	}

	if envelope.OK {
		if paginationInfo := extractPaginationInfo(envelope.Payload); paginationInfo != "" {
			response.Content = append(response.Content, ContentBlock{
				Type: "text",
				Text: paginationInfo,
			})
		}
	}

	return response, nil
}

// extractPaginationInfo reads Redmine's total_count/offset/limit collection metadata.
// Returns an empty string for payloads that are not paginated collections.
func extractPaginationInfo(payload interface{}) string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return ""
	}

	total, ok := asInt(obj["total_count"])
	if !ok {
		return ""
	}
	offset, _ := asInt(obj["offset"])

	shown := 0
	for key, value := range obj {
		if key == "total_count" || key == "offset" || key == "limit" {
			continue
		}
		if items, ok := value.([]interface{}); ok {
			shown = len(items)
			break
		}
	}

	if shown == 0 {
		return fmt.Sprintf("Pagination: no results (total %d)", total)
	}
	return fmt.Sprintf("Pagination: showing %d-%d of %d total results", offset+1, offset+shown, total)
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

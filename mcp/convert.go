package mcp

import (
	"encoding/json"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/stride"
)

// descriptorFromMCP converts an MCP tool definition to a ToolDescriptor,
// preferring the raw schema when the server supplies one.
func descriptorFromMCP(provider string, t mcpgo.Tool) stride.ToolDescriptor {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return stride.ToolDescriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
		Provider:    provider,
	}
}

// flattenResult concatenates a call result's content blocks as text.
// Non-text blocks and structured content are rendered as JSON.
func flattenResult(result *mcpgo.CallToolResult) string {
	if result == nil {
		return ""
	}

	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcpgo.TextContent:
			parts = append(parts, content.Text)
		case *mcpgo.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}

	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}

	return strings.Join(parts, "\n")
}

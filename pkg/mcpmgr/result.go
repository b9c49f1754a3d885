package mcpmgr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDescriptor is one entry of a server's tool catalog.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// ContentKind tags a ContentItem.
type ContentKind string

const (
	ContentText    ContentKind = "text"
	ContentImage   ContentKind = "image"
	ContentUnknown ContentKind = "unknown"
)

// ContentItem is one element of a tool response, normalized from the
// heterogeneous MCP content union. Text items carry Text; image items carry
// Data and MIMEType; anything else is captured lossily in Raw.
type ContentItem struct {
	Kind     ContentKind `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     []byte      `json:"data,omitempty"`
	MIMEType string      `json:"mimeType,omitempty"`
	Raw      string      `json:"raw,omitempty"`
}

// ToolCallResult is the uniform outcome of CallTool. Success is false when
// the transport failed (Error holds the message, Content is nil) or when the
// tool itself reported failure (IsError is true and Content holds whatever
// the tool returned). Callers distinguish "the tool said no" from "we could
// not reach the tool" by checking Error.
type ToolCallResult struct {
	Success bool          `json:"success"`
	Content []ContentItem `json:"content,omitempty"`
	IsError bool          `json:"isError,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Text concatenates the text content items, which is the common shape for
// filesystem-style tools.
func (r ToolCallResult) Text() string {
	var b strings.Builder
	for _, item := range r.Content {
		if item.Kind == ContentText {
			b.WriteString(item.Text)
		}
	}
	return b.String()
}

func toolCallFailure(format string, args ...any) ToolCallResult {
	return ToolCallResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// normalizeResult maps an SDK call-tool response onto ToolCallResult.
func normalizeResult(res *mcp.CallToolResult) ToolCallResult {
	if res == nil {
		return ToolCallResult{Success: true}
	}
	content := make([]ContentItem, 0, len(res.Content))
	for _, item := range res.Content {
		content = append(content, normalizeContent(item))
	}
	return ToolCallResult{
		Success: !res.IsError,
		Content: content,
		IsError: res.IsError,
	}
}

func normalizeContent(item mcp.Content) ContentItem {
	switch c := item.(type) {
	case *mcp.TextContent:
		return ContentItem{Kind: ContentText, Text: c.Text}
	case *mcp.ImageContent:
		mime := c.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return ContentItem{Kind: ContentImage, Data: c.Data, MIMEType: mime}
	default:
		// Lossy fallback: keep a raw capture of shapes we do not model
		// (audio, embedded resources, future content types).
		raw, err := json.Marshal(item)
		if err != nil {
			return ContentItem{Kind: ContentUnknown, Raw: fmt.Sprintf("%v", item)}
		}
		return ContentItem{Kind: ContentUnknown, Raw: string(raw)}
	}
}

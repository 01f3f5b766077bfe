package mcp

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// NormalizeContent turns a raw MCP tool/resource content blob into a
// MessageContent with its MIME type detected from magic bytes when the
// server didn't declare one, and its bytes base64-encoded as inline data
// (spec.md §4.4's content handler).
func NormalizeContent(raw []byte, declaredMimeType string) MessageContent {
	mimeType := declaredMimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}

	if strings.HasPrefix(mimeType, "text/") || mimeType == "application/json" {
		return MessageContent{Type: "text", Text: string(raw), MimeType: mimeType}
	}

	kind := "resource"
	if strings.HasPrefix(mimeType, "image/") {
		kind = "image"
	}
	return MessageContent{
		Type:     kind,
		Data:     base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
	}
}

// ToProviderText coerces a ToolCallResult into plain text for providers
// that cannot accept structured/binary tool-result content (spec.md §4.4:
// "provider-incompatible content" is summarized to text, not dropped).
// Pure text content is concatenated verbatim; anything else collapses to
// a one-line summary so the provider never sees a raw content type it
// cannot render.
func ToProviderText(result *ToolCallResult) (text string, isError bool) {
	if result == nil {
		return "", false
	}
	if len(result.Content) == 0 {
		return "", result.IsError
	}

	allText := true
	var combined strings.Builder
	for _, item := range result.Content {
		if item.Type != "text" {
			allText = false
			break
		}
		if item.Text == "" {
			continue
		}
		if combined.Len() > 0 {
			combined.WriteString("\n")
		}
		combined.WriteString(item.Text)
	}
	if allText && combined.Len() > 0 {
		return combined.String(), result.IsError
	}

	return summarizeContent(result.Content), result.IsError
}

func summarizeContent(items []ToolResultContent) string {
	var parts []string
	for _, item := range items {
		switch item.Type {
		case "text":
			parts = append(parts, item.Text)
		case "image":
			mime := item.MimeType
			if mime == "" {
				mime = "image"
			}
			parts = append(parts, fmt.Sprintf("[%s, %d bytes, base64]", mime, len(item.Data)))
		default:
			mime := item.MimeType
			if mime == "" {
				mime = item.Type
			}
			parts = append(parts, fmt.Sprintf("[%s content, %d bytes]", mime, len(item.Data)))
		}
	}
	return strings.Join(parts, "\n")
}

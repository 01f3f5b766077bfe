package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/radium-run/radium/pkg/radium"
)

// EditFileTool applies one or more find/replace edits to a workspace file,
// grounded on internal/tools/files/edit.go.
type EditFileTool struct {
	resolver resolver
}

// NewEditFileTool scopes an edit tool to workspaceRoot.
func NewEditFileTool(workspaceRoot string) *EditFileTool {
	return &EditFileTool{resolver: newResolver(workspaceRoot)}
}

func (t *EditFileTool) Name() string { return "edit_file" }
func (t *EditFileTool) Description() string {
	return "Apply one or more find/replace edits to a file in the workspace."
}

func (t *EditFileTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: mustSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path relative to the workspace root."},
				"edits": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"old_text":    map[string]any{"type": "string"},
							"new_text":    map[string]any{"type": "string"},
							"replace_all": map[string]any{"type": "boolean"},
						},
						"required": []string{"old_text", "new_text"},
					},
				},
			},
			"required": []string{"path", "edits"},
		}),
	}
}

func (t *EditFileTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var in struct {
		Path  string `json:"path"`
		Edits []struct {
			OldText    string `json:"old_text"`
			NewText    string `json:"new_text"`
			ReplaceAll bool   `json:"replace_all"`
		} `json:"edits"`
	}
	if err := json.Unmarshal(call.Arguments, &in); err != nil {
		return errResult(call, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(in.Edits) == 0 {
		return errResult(call, "edits are required"), nil
	}

	resolved, err := t.resolver.resolve(in.Path)
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return errResult(call, fmt.Sprintf("read file: %v", err)), nil
	}

	content := string(data)
	replacements := 0
	for _, edit := range in.Edits {
		if edit.OldText == "" {
			return errResult(call, "old_text is required"), nil
		}
		if !strings.Contains(content, edit.OldText) {
			return errResult(call, "old_text not found"), nil
		}
		if edit.ReplaceAll {
			replacements += strings.Count(content, edit.OldText)
			content = strings.ReplaceAll(content, edit.OldText, edit.NewText)
		} else {
			content = strings.Replace(content, edit.OldText, edit.NewText, 1)
			replacements++
		}
	}

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return errResult(call, fmt.Sprintf("write file: %v", err)), nil
	}

	return radium.ToolResult{
		ToolCallID: call.ID,
		Success:    true,
		Output:     fmt.Sprintf("applied %d replacement(s) to %s", replacements, in.Path),
	}, nil
}

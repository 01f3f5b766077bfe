// Package builtin implements the local tool set the orchestrator registers
// by default: file read/write/edit/delete and terminal command execution
// (spec.md §4.4).
//
// Grounded on internal/tools/files/{read,write,edit}.go and
// internal/tools/exec/tools.go, retargeted at pkg/radium.ToolCall/ToolResult
// instead of internal/agent's own types.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/radium-run/radium/pkg/radium"
)

const defaultMaxReadBytes = 200_000

// ReadFileTool reads a workspace-relative file with an offset/byte cap,
// grounded on internal/tools/files/read.go.
type ReadFileTool struct {
	resolver resolver
	maxBytes int
}

// NewReadFileTool scopes a read tool to workspaceRoot.
func NewReadFileTool(workspaceRoot string) *ReadFileTool {
	return &ReadFileTool{resolver: newResolver(workspaceRoot), maxBytes: defaultMaxReadBytes}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read a file from the workspace." }

// readFileArgs is ReadFileTool's call payload; its jsonschema tags are the
// single source of truth for the schema the model sees.
type readFileArgs struct {
	Path     string `json:"path" jsonschema:"required,description=Path relative to the workspace root."`
	Offset   int64  `json:"offset,omitempty" jsonschema:"minimum=0"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"minimum=0"`
}

func (t *ReadFileTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  reflectSchema[readFileArgs](),
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var in readFileArgs
	if err := json.Unmarshal(call.Arguments, &in); err != nil {
		return errResult(call, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := t.resolver.resolve(in.Path)
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return errResult(call, fmt.Sprintf("open file: %v", err)), nil
	}
	defer file.Close()

	if in.Offset > 0 {
		if _, err := file.Seek(in.Offset, io.SeekStart); err != nil {
			return errResult(call, fmt.Sprintf("seek file: %v", err)), nil
		}
	}

	limit := t.maxBytes
	if in.MaxBytes > 0 && in.MaxBytes < limit {
		limit = in.MaxBytes
	}
	buf, err := io.ReadAll(io.LimitReader(file, int64(limit)))
	if err != nil {
		return errResult(call, fmt.Sprintf("read file: %v", err)), nil
	}

	return radium.ToolResult{ToolCallID: call.ID, Success: true, Output: string(buf)}, nil
}

// WriteFileTool overwrites a workspace-relative file, grounded on
// internal/tools/files/write.go.
type WriteFileTool struct {
	resolver resolver
}

func NewWriteFileTool(workspaceRoot string) *WriteFileTool {
	return &WriteFileTool{resolver: newResolver(workspaceRoot)}
}

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write content to a file in the workspace, creating it if needed." }

type writeFileArgs struct {
	Path    string `json:"path" jsonschema:"required"`
	Content string `json:"content" jsonschema:"required"`
}

func (t *WriteFileTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  reflectSchema[writeFileArgs](),
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var in writeFileArgs
	if err := json.Unmarshal(call.Arguments, &in); err != nil {
		return errResult(call, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := t.resolver.resolve(in.Path)
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	if err := os.WriteFile(resolved, []byte(in.Content), 0o644); err != nil {
		return errResult(call, fmt.Sprintf("write file: %v", err)), nil
	}

	return radium.ToolResult{ToolCallID: call.ID, Success: true, Output: fmt.Sprintf("wrote %d bytes to %s", len(in.Content), in.Path)}, nil
}

// DeleteFileTool removes a workspace-relative file, grounded on the same
// resolver discipline as internal/tools/files's write/edit tools.
type DeleteFileTool struct {
	resolver resolver
}

func NewDeleteFileTool(workspaceRoot string) *DeleteFileTool {
	return &DeleteFileTool{resolver: newResolver(workspaceRoot)}
}

func (t *DeleteFileTool) Name() string        { return "delete_file" }
func (t *DeleteFileTool) Description() string { return "Delete a file from the workspace." }

type deleteFileArgs struct {
	Path string `json:"path" jsonschema:"required"`
}

func (t *DeleteFileTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  reflectSchema[deleteFileArgs](),
	}
}

func (t *DeleteFileTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var in deleteFileArgs
	if err := json.Unmarshal(call.Arguments, &in); err != nil {
		return errResult(call, fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := t.resolver.resolve(in.Path)
	if err != nil {
		return errResult(call, err.Error()), nil
	}
	if err := os.Remove(resolved); err != nil {
		return errResult(call, fmt.Sprintf("delete file: %v", err)), nil
	}

	return radium.ToolResult{ToolCallID: call.ID, Success: true, Output: fmt.Sprintf("deleted %s", in.Path)}, nil
}

func errResult(call radium.ToolCall, message string) radium.ToolResult {
	return radium.ToolResult{ToolCallID: call.ID, Success: false, IsError: true, Output: message}
}

func mustSchema(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}

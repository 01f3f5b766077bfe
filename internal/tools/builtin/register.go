package builtin

import "github.com/radium-run/radium/internal/tools"

// RegisterDefaults adds the workspace-scoped file and command tools to reg.
func RegisterDefaults(reg *tools.Registry, workspaceRoot string) {
	reg.Register(NewReadFileTool(workspaceRoot))
	reg.Register(NewWriteFileTool(workspaceRoot))
	reg.Register(NewEditFileTool(workspaceRoot))
	reg.Register(NewDeleteFileTool(workspaceRoot))
	reg.Register(NewExecTool(workspaceRoot))
}

package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/radium-run/radium/internal/tools/security"
	"github.com/radium-run/radium/pkg/radium"
)

// maxExecOutput caps how much stdout/stderr a single command can accumulate,
// grounded on internal/tools/exec/manager.go's limitedBuffer.
const maxExecOutput = 1 << 20

// defaultExecTimeout bounds a command with no explicit timeout.
const defaultExecTimeout = 2 * time.Minute

// ExecTool runs a shell command rooted at the workspace, grounded on
// internal/tools/exec/tools.go and manager.go's buildCommand/runSync. This
// adapts only the synchronous path — background process management belongs
// to a future sandboxed runner, not a plain built-in tool.
type ExecTool struct {
	resolver resolver
}

// NewExecTool scopes a command-execution tool to workspaceRoot.
func NewExecTool(workspaceRoot string) *ExecTool {
	return &ExecTool{resolver: newResolver(workspaceRoot)}
}

func (t *ExecTool) Name() string { return "run_terminal_cmd" }
func (t *ExecTool) Description() string {
	return "Run a shell command in the workspace and return its stdout/stderr/exit code."
}

func (t *ExecTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: mustSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "Shell command to execute."},
				"cwd":     map[string]any{"type": "string", "description": "Working directory, relative to the workspace root."},
				"env":     map[string]any{"type": "object", "description": "Environment variable overrides."},
				"timeout_seconds": map[string]any{
					"type": "integer", "minimum": 0,
					"description": "Timeout in seconds (0 uses the default).",
				},
			},
			"required": []string{"command"},
		}),
	}
}

type execResult struct {
	Command  string   `json:"command"`
	Cwd      string   `json:"cwd"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode int      `json:"exit_code"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (t *ExecTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var in struct {
		Command        string            `json:"command"`
		Cwd            string            `json:"cwd"`
		Env            map[string]string `json:"env"`
		TimeoutSeconds int               `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(call.Arguments, &in); err != nil {
		return errResult(call, fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	command := strings.TrimSpace(in.Command)
	if command == "" {
		return errResult(call, "command is required"), nil
	}

	dir, err := t.resolver.resolve(firstNonEmpty(in.Cwd, "."))
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	timeout := defaultExecTimeout
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = dir
	if in.Env != nil {
		env := os.Environ()
		for k, v := range in.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, max: maxExecOutput}
	cmd.Stderr = &limitedWriter{buf: &stderr, max: maxExecOutput}

	runErr := cmd.Run()
	result := execResult{
		Command:  command,
		Cwd:      dir,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCodeOf(runErr),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	if analysis := security.AnalyzeCommandQuoteAware(command); !analysis.IsSafe {
		result.Warnings = append(result.Warnings, analysis.Reason)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResult(call, fmt.Sprintf("encode result: %v", err)), nil
	}
	return radium.ToolResult{ToolCallID: call.ID, Success: runErr == nil, Output: string(payload)}, nil
}

// limitedWriter truncates writes once max bytes have been buffered, so a
// runaway command cannot inflate a ToolResult without bound.
type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.max - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

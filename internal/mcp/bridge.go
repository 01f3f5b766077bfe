package mcp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/radium-run/radium/internal/tools"
	"github.com/radium-run/radium/pkg/radium"
)

// maxToolNameLen bounds a synthesized tool name so it stays well inside
// typical provider function-name limits.
const maxToolNameLen = 64

// ToolCaller defines the MCP tool execution contract used by ToolBridge,
// grounded on internal/mcp/bridge.go's ToolCaller. Satisfied by *Manager;
// narrowed to an interface so tests can substitute a fake.
type ToolCaller interface {
	CallTool(ctx context.Context, serverID, toolName string, arguments map[string]any) (*ToolCallResult, error)
}

// ToolBridge wraps a single MCP server tool as a tools.Tool, grounded on
// internal/mcp/bridge.go's ToolBridge — retargeted from agent.ToolResult
// to radium.ToolResult and from a single Nexus agent.Runtime registration
// call to the generic tools.Registry.
type ToolBridge struct {
	caller   ToolCaller
	serverID string
	tool     *MCPTool
	name     string
}

// NewToolBridge creates a bridge tool with a precomputed, provider-safe name.
func NewToolBridge(caller ToolCaller, serverID string, tool *MCPTool, safeName string) *ToolBridge {
	return &ToolBridge{caller: caller, serverID: serverID, tool: tool, name: safeName}
}

func (b *ToolBridge) Name() string { return b.name }

func (b *ToolBridge) Description() string {
	desc := strings.TrimSpace(b.tool.Description)
	if desc == "" {
		return fmt.Sprintf("MCP tool %s.%s", b.serverID, b.tool.Name)
	}
	return fmt.Sprintf("MCP tool %s.%s: %s", b.serverID, b.tool.Name, desc)
}

func (b *ToolBridge) Schema() radium.ToolSchema {
	params := b.tool.InputSchema
	if len(params) == 0 {
		params = json.RawMessage(`{"type":"object"}`)
	}
	return radium.ToolSchema{Name: b.name, Description: b.Description(), Parameters: params}
}

// Execute calls through to the MCP server and coerces its result into a
// ToolResult, using the content handler to keep non-text content from
// reaching a provider that can't render it.
func (b *ToolBridge) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	var arguments map[string]any
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &arguments); err != nil {
			return radium.ToolResult{ToolCallID: call.ID, Success: false, IsError: true, Output: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}

	result, err := b.caller.CallTool(ctx, b.serverID, b.tool.Name, arguments)
	if err != nil {
		return radium.ToolResult{ToolCallID: call.ID, Success: false, IsError: true, Output: err.Error()}, nil
	}

	text, isError := ToProviderText(result)
	return radium.ToolResult{ToolCallID: call.ID, Success: !isError, IsError: isError, Output: text}, nil
}

var _ tools.Tool = (*ToolBridge)(nil)

// RegisterServerTools registers a tools.Tool for every tool currently
// cached on every connected server, returning the provider-safe names it
// registered. Calling it again after Manager.Connect/RefreshCapabilities
// picks up newly discovered tools (re-registering a name is a no-op
// replace, per tools.Registry.Register).
func RegisterServerTools(reg *tools.Registry, mgr *Manager) []string {
	if reg == nil || mgr == nil {
		return nil
	}

	entries := listToolsSorted(mgr)
	used := make(map[string]struct{})
	registered := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := safeToolName(entry.serverID, entry.tool.Name, used)
		reg.Register(NewToolBridge(mgr, entry.serverID, entry.tool, name))
		registered = append(registered, name)
	}
	return registered
}

type toolEntry struct {
	serverID string
	tool     *MCPTool
}

func listToolsSorted(mgr *Manager) []toolEntry {
	all := mgr.AllTools()
	if len(all) == 0 {
		return nil
	}

	serverIDs := make([]string, 0, len(all))
	for id := range all {
		serverIDs = append(serverIDs, id)
	}
	sort.Strings(serverIDs)

	var entries []toolEntry
	for _, serverID := range serverIDs {
		toolsForServer := all[serverID]
		sort.Slice(toolsForServer, func(i, j int) bool { return toolsForServer[i].Name < toolsForServer[j].Name })
		for _, tool := range toolsForServer {
			entries = append(entries, toolEntry{serverID: serverID, tool: tool})
		}
	}
	return entries
}

// safeToolName builds the "mcp_<server>_<tool>" name the dry-run preview
// generator (internal/policy/dryrun.go) parses to recover a server id.
func safeToolName(serverID, toolName string, used map[string]struct{}) string {
	base := "mcp_" + sanitizeToolPart(serverID) + "_" + sanitizeToolPart(toolName)
	name := base
	if len(name) > maxToolNameLen {
		name = truncateWithHash(base, serverID, toolName)
	}
	if _, exists := used[name]; exists {
		name = dedupeWithHash(name, serverID, toolName)
	}
	used[name] = struct{}{}
	return name
}

func sanitizeToolPart(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	underscore := false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	clean := strings.Trim(b.String(), "_")
	if clean == "" {
		return "tool"
	}
	return clean
}

func toolNameHash(serverID, toolName string) string {
	sum := sha1.Sum([]byte(serverID + ":" + toolName))
	return hex.EncodeToString(sum[:])[:8]
}

func truncateWithHash(base, serverID, toolName string) string {
	suffix := "_" + toolNameHash(serverID, toolName)
	if maxToolNameLen <= len(suffix) {
		return suffix[len(suffix)-maxToolNameLen:]
	}
	trimLen := maxToolNameLen - len(suffix)
	if trimLen > len(base) {
		trimLen = len(base)
	}
	return base[:trimLen] + suffix
}

func dedupeWithHash(base, serverID, toolName string) string {
	suffix := "_" + toolNameHash(serverID, toolName)
	name := base + suffix
	if len(name) <= maxToolNameLen {
		return name
	}
	return truncateWithHash(base, serverID, toolName)
}

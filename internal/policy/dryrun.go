package policy

import (
	"fmt"
	"strings"

	"github.com/radium-run/radium/pkg/radium"
)

// GeneratePreview builds a human-inspectable preview of what a tool call
// would do, without executing it (spec.md §4.3 step 4). Ported from
// original_source/crates/radium-core/src/policy/dry_run.rs.
func GeneratePreview(toolName string, args []string) radium.DryRunPreview {
	return radium.DryRunPreview{
		ToolName:          toolName,
		Arguments:         args,
		AffectedResources: analyzeAffectedResources(toolName, args),
		Details:           generateDetails(toolName, args),
	}
}

var fileTools = map[string]bool{
	"read_file":   true,
	"write_file":  true,
	"edit_file":   true,
	"delete_file": true,
	"create_file": true,
}

func analyzeAffectedResources(toolName string, args []string) []string {
	switch {
	case fileTools[toolName]:
		if len(args) == 0 {
			return []string{"File: <unknown>"}
		}
		return []string{fmt.Sprintf("File: %s", args[0])}

	case toolName == "run_terminal_cmd":
		joined := strings.Join(args, " ")
		switch {
		case strings.Contains(joined, "terraform"):
			return []string{"Infrastructure: terraform"}
		case strings.Contains(joined, "git"):
			return []string{"VCS: git"}
		case strings.Contains(joined, "docker") || strings.Contains(joined, "podman"):
			return []string{"Container: " + firstOr(args, "command")}
		case strings.Contains(joined, "kubectl"):
			return []string{"Cluster: kubernetes"}
		default:
			return []string{fmt.Sprintf("Command: %s", firstOr(args, "unknown"))}
		}

	case strings.HasPrefix(toolName, "mcp_"):
		parts := strings.Split(toolName, "_")
		server := "unknown"
		if len(parts) > 1 {
			server = parts[1]
		}
		return []string{fmt.Sprintf("MCP server: %s", server)}

	default:
		return []string{fmt.Sprintf("Tool: %s with %d argument(s)", toolName, len(args))}
	}
}

func firstOr(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return args[0]
}

// generateDetails returns a hard-coded explanatory string for
// well-known-dangerous command shapes, and an empty string otherwise.
func generateDetails(toolName string, args []string) string {
	joined := strings.Join(args, " ")

	if toolName != "run_terminal_cmd" {
		return ""
	}

	switch {
	case strings.Contains(joined, "terraform") && strings.Contains(joined, "apply"):
		return "This will apply infrastructure changes, potentially modifying or replacing live resources."
	case strings.Contains(joined, "terraform") && strings.Contains(joined, "destroy"):
		return "This will DESTROY infrastructure resources. This action is typically irreversible."
	case strings.Contains(joined, "git") && strings.Contains(joined, "push") && strings.Contains(joined, "--force"):
		return "This will force-push, overwriting remote history. Other collaborators' work may be lost."
	case strings.Contains(joined, "rm") && strings.Contains(joined, "-rf"):
		return "This will recursively and forcibly delete files without confirmation."
	case strings.Contains(joined, "sudo"):
		return "This will run with elevated privileges."
	default:
		return ""
	}
}

// FormatPreview renders a preview as a human-readable block, suitable for
// display in an approval prompt.
func FormatPreview(p radium.DryRunPreview) string {
	var b strings.Builder
	b.WriteString("Dry-Run Preview\n")
	fmt.Fprintf(&b, "  Tool: %s\n", p.ToolName)
	if len(p.Arguments) > 0 {
		fmt.Fprintf(&b, "  Arguments: %s\n", strings.Join(p.Arguments, " "))
	}
	if len(p.AffectedResources) > 0 {
		b.WriteString("  Affected:\n")
		for _, r := range p.AffectedResources {
			fmt.Fprintf(&b, "    - %s\n", r)
		}
	}
	if p.Details != "" {
		fmt.Fprintf(&b, "  Details: %s\n", p.Details)
	}
	return b.String()
}

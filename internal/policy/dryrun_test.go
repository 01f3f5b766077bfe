package policy

import "testing"

func TestGeneratePreviewFileTool(t *testing.T) {
	p := GeneratePreview("write_file", []string{"/tmp/out.txt", "contents"})
	if len(p.AffectedResources) != 1 || p.AffectedResources[0] != "File: /tmp/out.txt" {
		t.Fatalf("got %+v", p.AffectedResources)
	}
}

func TestGeneratePreviewTerraformDestroy(t *testing.T) {
	p := GeneratePreview("run_terminal_cmd", []string{"terraform", "destroy", "-auto-approve"})
	if p.Details == "" {
		t.Fatal("expected a details warning for terraform destroy")
	}
	if p.AffectedResources[0] != "Infrastructure: terraform" {
		t.Fatalf("got %+v", p.AffectedResources)
	}
}

func TestGeneratePreviewGitForcePush(t *testing.T) {
	p := GeneratePreview("run_terminal_cmd", []string{"git", "push", "--force"})
	if p.Details == "" {
		t.Fatal("expected a details warning for force push")
	}
}

func TestGeneratePreviewMCPTool(t *testing.T) {
	p := GeneratePreview("mcp_github_search", []string{"query"})
	if p.AffectedResources[0] != "MCP server: github" {
		t.Fatalf("got %+v", p.AffectedResources)
	}
}

func TestGeneratePreviewGenericFallback(t *testing.T) {
	p := GeneratePreview("custom_tool", []string{"a", "b"})
	if p.AffectedResources[0] != "Tool: custom_tool with 2 argument(s)" {
		t.Fatalf("got %+v", p.AffectedResources)
	}
}

func TestFormatPreviewRendersBlock(t *testing.T) {
	p := GeneratePreview("write_file", []string{"/tmp/x"})
	out := FormatPreview(p)
	if out == "" {
		t.Fatal("expected non-empty rendering")
	}
}

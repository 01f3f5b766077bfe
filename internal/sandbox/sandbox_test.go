package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/radium-run/radium/pkg/radium"
)

func TestNewUnknownType(t *testing.T) {
	if _, err := New(radium.SandboxSpec{Type: "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown sandbox type")
	}
}

func TestPermissiveSandboxExecute(t *testing.T) {
	sb, err := New(radium.SandboxSpec{Type: radium.SandboxPermissive})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := sb.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sb.Cleanup(ctx)

	result, err := sb.Execute(ctx, "echo", []string{"hello"}, "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if result.Stdout != "hello\n" {
		t.Fatalf("unexpected stdout: %q", result.Stdout)
	}
}

func TestPermissiveSandboxExecuteNonZeroExit(t *testing.T) {
	sb, err := New(radium.SandboxSpec{Type: radium.SandboxPermissive})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	result, err := sb.Execute(ctx, "sh", []string{"-c", "exit 3"}, "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestPermissiveSandboxExecuteCommandNotFound(t *testing.T) {
	sb, err := New(radium.SandboxSpec{Type: radium.SandboxPermissive})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := sb.Execute(ctx, "no-such-binary-xyz", nil, ""); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestPermissiveProfileNetworkModes(t *testing.T) {
	cases := []struct {
		network  radium.NetworkMode
		contains string
	}{
		{radium.NetworkOpen, "(allow network*)"},
		{radium.NetworkClosed, "(deny network*)"},
		{radium.NetworkProxied, "require-entitlement"},
	}
	for _, tc := range cases {
		profile := permissiveProfile(tc.network)
		if !strings.Contains(profile, tc.contains) {
			t.Errorf("network=%s: expected profile to contain %q, got %q", tc.network, tc.contains, profile)
		}
	}
	if !strings.Contains(permissiveProfile(radium.NetworkOpen), "(allow default)") {
		t.Error("expected permissive profile to allow default")
	}
}

func TestRestrictiveProfileDeniesDefault(t *testing.T) {
	profile := restrictiveProfile(radium.NetworkClosed)
	if !strings.Contains(profile, "(deny default)") {
		t.Errorf("expected restrictive profile to deny default, got %q", profile)
	}
	if !strings.Contains(profile, "(deny network*)") {
		t.Errorf("expected closed network to deny network*, got %q", profile)
	}
}

func TestResolveProfileCustomReadsFileVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.sb")
	content := "(version 1)\n(allow default)\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	profile, err := resolveProfile(radium.SandboxSpec{Profile: radium.SandboxProfileCustom, ProfilePath: path})
	if err != nil {
		t.Fatalf("resolveProfile: %v", err)
	}
	if profile != content {
		t.Fatalf("expected verbatim file contents, got %q", profile)
	}
}

func TestResolveProfileCustomMissingFile(t *testing.T) {
	_, err := resolveProfile(radium.SandboxSpec{Profile: radium.SandboxProfileCustom, ProfilePath: "/no/such/path"})
	if err == nil {
		t.Fatal("expected an error for a missing custom profile file")
	}
}

func TestResolveProfileUnknown(t *testing.T) {
	if _, err := resolveProfile(radium.SandboxSpec{Profile: "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown profile")
	}
}

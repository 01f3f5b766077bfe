package sandbox

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/radium-run/radium/pkg/radium"
)

// seatbeltSandbox wraps a command with macOS's sandbox-exec(8), synthesizing
// a Seatbelt profile from the configured profile/network mode. Grounded on
// original_source's SeatbeltSandbox: initialize() verifies sandbox-exec is
// on PATH, execute() invokes `sandbox-exec -p <profile> <command> <args...>`,
// cleanup() is a no-op.
type seatbeltSandbox struct {
	spec    radium.SandboxSpec
	profile string
}

func newSeatbeltSandbox(spec radium.SandboxSpec) (Sandbox, error) {
	if !seatbeltAvailable() {
		return nil, errUnavailable("seatbelt is only available on macOS", nil)
	}
	if _, err := exec.LookPath("sandbox-exec"); err != nil {
		return nil, errUnavailable("sandbox-exec not found in PATH", err)
	}

	profile, err := resolveProfile(spec)
	if err != nil {
		return nil, err
	}
	return &seatbeltSandbox{spec: spec, profile: profile}, nil
}

func (s *seatbeltSandbox) Initialize(ctx context.Context) error { return nil }
func (s *seatbeltSandbox) Cleanup(ctx context.Context) error    { return nil }
func (s *seatbeltSandbox) Type() radium.SandboxType             { return radium.SandboxSeatbelt }

func (s *seatbeltSandbox) Execute(ctx context.Context, command string, args []string, cwd string) (Result, error) {
	wrap := []string{"sandbox-exec", "-p", s.profile}
	return runCommand(ctx, command, args, cwd, s.spec.Env, wrap)
}

// resolveProfile returns the Seatbelt profile text for spec, reading a
// custom profile file verbatim per spec.md §4.6 ("Custom profile files are
// read verbatim").
func resolveProfile(spec radium.SandboxSpec) (string, error) {
	switch spec.Profile {
	case radium.SandboxProfilePermissive:
		return permissiveProfile(spec.Network), nil
	case radium.SandboxProfileRestrictive:
		return restrictiveProfile(spec.Network), nil
	case radium.SandboxProfileCustom:
		data, err := os.ReadFile(spec.ProfilePath)
		if err != nil {
			return "", errInvalidProfile("failed to read custom profile file", err)
		}
		return string(data), nil
	default:
		return "", errInvalidProfile("unknown profile: "+string(spec.Profile), nil)
	}
}

// permissiveProfile matches original_source's permissive_profile() exactly:
// allow everything except network rules, which follow the configured mode.
func permissiveProfile(network radium.NetworkMode) string {
	var b strings.Builder
	b.WriteString("(version 1)\n")
	b.WriteString("(debug deny)\n")
	b.WriteString("(allow default)\n")
	b.WriteString(networkRulePermissive(network))
	b.WriteString("\n")
	b.WriteString("(allow file-read*)\n")
	b.WriteString("(allow file-write*)\n")
	b.WriteString("(allow process-exec*)\n")
	b.WriteString("(allow process-fork)\n")
	b.WriteString("(allow sysctl-read)\n")
	b.WriteString("(allow ipc-posix-shm*)\n")
	return b.String()
}

// restrictiveProfile matches original_source's restrictive_profile(): deny
// by default, allow only what's needed to run a shell.
func restrictiveProfile(network radium.NetworkMode) string {
	var b strings.Builder
	b.WriteString("(version 1)\n")
	b.WriteString("(deny default)\n")
	b.WriteString(networkRuleRestrictive(network))
	b.WriteString("\n")
	b.WriteString("(allow file-read-metadata)\n")
	b.WriteString("(allow file-read* (subpath \"/usr/lib\"))\n")
	b.WriteString("(allow file-read* (subpath \"/System/Library\"))\n")
	b.WriteString("(allow file-write* (subpath \"/tmp\"))\n")
	b.WriteString("(allow process-exec (literal \"/bin/sh\"))\n")
	b.WriteString("(allow process-exec (literal \"/usr/bin/env\"))\n")
	b.WriteString("(allow sysctl-read)\n")
	return b.String()
}

func networkRulePermissive(network radium.NetworkMode) string {
	switch network {
	case radium.NetworkClosed:
		return "(deny network*)"
	case radium.NetworkProxied:
		return "(allow network* (require-entitlement \"com.apple.security.network.client\"))"
	default:
		return "(allow network*)"
	}
}

func networkRuleRestrictive(network radium.NetworkMode) string {
	switch network {
	case radium.NetworkClosed:
		return "(deny network*)"
	case radium.NetworkProxied:
		return "(allow network-outbound (literal \"/var/run/mDNSResponder\"))"
	default:
		return "(allow network*)"
	}
}

// Package sandbox implements the Sandbox (spec.md §4.6): platform-specific
// subprocess confinement for tools classed "shell" or marked sensitive in
// an agent's configuration.
//
// Grounded on original_source/crates/radium-core/src/sandbox/seatbelt.rs for
// the exact Seatbelt profile bodies and the initialize/execute/cleanup
// contract shape, with idiomatic-Go profile-construction style (strings.Builder,
// exec.LookPath availability check) from
// vellankikoti-kubilitics-os-emergent/kcli/internal/plugin/sandbox_darwin.go.
package sandbox

import (
	"context"
	"fmt"

	"github.com/radium-run/radium/pkg/radium"
)

// Result is the outcome of a confined subprocess run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Sandbox confines a subprocess per spec.md §4.6's initialize/execute/cleanup
// contract.
type Sandbox interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context, command string, args []string, cwd string) (Result, error)
	Cleanup(ctx context.Context) error
	Type() radium.SandboxType
}

// New constructs the Sandbox matching spec.Type. Only radium.SandboxSeatbelt
// is backed by OS confinement; radium.SandboxPermissive runs the command
// unconfined under the "permissive" tier name.
func New(spec radium.SandboxSpec) (Sandbox, error) {
	switch spec.Type {
	case radium.SandboxSeatbelt:
		return newSeatbeltSandbox(spec)
	case radium.SandboxPermissive:
		return &permissiveSandbox{spec: spec}, nil
	default:
		return nil, fmt.Errorf("sandbox: unknown type %q", spec.Type)
	}
}

// permissiveSandbox runs commands without OS-level confinement. It still
// honors SandboxSpec's env passthrough so callers can't tell the difference
// in configuration shape between this and a confined sandbox.
type permissiveSandbox struct {
	spec radium.SandboxSpec
}

func (p *permissiveSandbox) Initialize(ctx context.Context) error { return nil }
func (p *permissiveSandbox) Cleanup(ctx context.Context) error    { return nil }
func (p *permissiveSandbox) Type() radium.SandboxType             { return radium.SandboxPermissive }

func (p *permissiveSandbox) Execute(ctx context.Context, command string, args []string, cwd string) (Result, error) {
	return runCommand(ctx, command, args, cwd, p.spec.Env, nil)
}

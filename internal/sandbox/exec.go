package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	radiumexec "github.com/radium-run/radium/internal/exec"
)

// runCommand spawns command with args under cwd, optionally wrapped by a
// launcher prefix (e.g. ["sandbox-exec", "-p", profile]), merging env over
// the current process environment.
func runCommand(ctx context.Context, command string, args []string, cwd string, env map[string]string, wrap []string) (Result, error) {
	command, err := radiumexec.SanitizeExecutableValue(command)
	if err != nil {
		return Result{}, errProcess("unsafe command", err)
	}

	argv := append(append([]string{}, wrap...), command)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), mapToEnviron(env)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never started (e.g. command not found) — this is a
			// sandbox-layer failure, not a command result.
			return Result{}, errProcess("failed to run command", err)
		}
	}

	return Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func mapToEnviron(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/radium-run/radium/pkg/radium"
)

// buildRunCmd drives one HandleInput call to completion, printing each
// OrchestrationEvent as it is published and relaying ApprovalRequired events
// to an interactive stdin prompt — the CLI's only interactive surface
// (spec.md §6: no wire protocol beyond what the orchestrator's event stream
// already defines).
func buildRunCmd() *cobra.Command {
	var (
		sessionID string
		agentName string
	)

	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Send one input to an agent and stream the resulting events",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			if input == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("radium: read stdin: %w", err)
				}
				input = strings.TrimSpace(string(data))
			}
			if input == "" {
				return fmt.Errorf("radium: no input given (pass as an argument or on stdin)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer rt.close()

			agent := radium.Agent{
				ID:         cfg.Agent.ID,
				Name:       cfg.Agent.Name,
				PromptPath: cfg.Agent.PromptPath,
				Models:     cfg.Agent.Models,
			}
			if agentName != "" {
				agent.Name = agentName
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			correlationID := uuid.NewString()

			events, cancelSub := rt.orch.SubscribeEvents(correlationID)
			defer cancelSub()

			resultCh := make(chan error, 1)
			go func() {
				resultCh <- rt.orch.HandleInput(ctx, correlationID, sessionID, agent, input)
			}()

			reader := bufio.NewReader(os.Stdin)
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return <-resultCh
					}
					printEvent(cmd.OutOrStdout(), ev)
					if ev.Kind == radium.EventApprovalRequired {
						relayApproval(cmd, reader, rt, ev)
					}
					if ev.Kind == radium.EventDone || ev.Kind == radium.EventError {
						return <-resultCh
					}
				case <-ctx.Done():
					return <-resultCh
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id to append to (defaults to a new one)")
	cmd.Flags().StringVar(&agentName, "agent", "", "override the configured agent's display name")
	return cmd
}

// printEvent renders one OrchestrationEvent as a single human-readable line.
// A richer TUI rendering is explicitly out of scope for this surface.
func printEvent(w io.Writer, ev radium.OrchestrationEvent) {
	switch ev.Kind {
	case radium.EventAssistantMessage:
		fmt.Fprintf(w, "assistant: %s\n", ev.Text)
	case radium.EventToolCallRequested:
		fmt.Fprintf(w, "tool requested: %s\n", ev.ToolCall.Name)
	case radium.EventToolCallStarted:
		fmt.Fprintf(w, "tool started: %s\n", ev.ToolCall.Name)
	case radium.EventToolCallFinished:
		status := "ok"
		if !ev.Success {
			status = "error"
		}
		fmt.Fprintf(w, "tool finished: %s (%s)\n", ev.ToolCall.Name, status)
	case radium.EventApprovalRequired:
		fmt.Fprintf(w, "approval required: %s (request %s)\n", ev.ToolCall.Name, ev.ApprovalRequestID)
	case radium.EventError:
		fmt.Fprintf(w, "error: %s: %s\n", ev.ErrorKind, ev.ErrorMessage)
	case radium.EventDone:
		fmt.Fprintf(w, "done: %s\n", ev.FinishReason)
	}
}

// relayApproval prompts stdin for a yes/no decision and resolves the pending
// Await in the orchestrator's approval waiter.
func relayApproval(cmd *cobra.Command, reader *bufio.Reader, rt *runtime, ev radium.OrchestrationEvent) {
	fmt.Fprint(cmd.OutOrStdout(), "approve? [y/N] ")
	line, _ := reader.ReadString('\n')
	approved := strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")

	approval := radium.Approval{
		ToolCallID: ev.ToolCall.ID,
		Approved:   approved,
		DecidedBy:  "cli",
	}
	if !approved {
		approval.Reason = "declined at prompt"
	}
	if err := rt.approvals.Resolve(ev.ApprovalRequestID, approval); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "radium: resolve approval: %v\n", err)
	}
}

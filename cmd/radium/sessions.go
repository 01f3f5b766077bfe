package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radium-run/radium/internal/sessions"
	"github.com/radium-run/radium/pkg/radium"
)

// buildSessionsCmd exposes the durable session store (spec.md §4.5) for
// inspection: list and show, no mutation beyond what "run" already performs.
func buildSessionsCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded sessions",
	}
	root.AddCommand(buildSessionsListCmd(), buildSessionsShowCmd())
	return root
}

func openSessionManager() (*sessions.Manager, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return sessions.NewManager(cfg.StateDir)
}

func buildSessionsListCmd() *cobra.Command {
	var (
		page    int
		size    int
		state   string
		agentID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openSessionManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			opts := sessions.ListOptions{Page: page, Size: size, AgentID: agentID}
			if state != "" {
				opts.State = radium.SessionState(state)
			}

			list, err := mgr.List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("radium: list sessions: %w", err)
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d messages\n", s.ID, s.State, s.Name, len(s.Messages))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number, zero-indexed")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	cmd.Flags().StringVar(&state, "state", "", "filter by session state (active, completed, failed, cancelled)")
	cmd.Flags().StringVar(&agentID, "agent", "", "filter by agent id")
	return cmd
}

func buildSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one session's full transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openSessionManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			session, err := mgr.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("radium: get session %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s (%s)\n", session.ID, session.State)
			for _, msg := range session.Messages {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", msg.Role, msg.Content)
			}
			for _, call := range session.ToolCalls {
				fmt.Fprintf(cmd.OutOrStdout(), "tool call: %s\n", call.Name)
			}
			for _, approval := range session.Approvals {
				fmt.Fprintf(cmd.OutOrStdout(), "approval: %s approved=%v by=%s\n", approval.ToolCallID, approval.Approved, approval.DecidedBy)
			}
			return nil
		},
	}
}

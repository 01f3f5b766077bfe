package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radium-run/radium/internal/credentials"
)

// buildAuthCmd manages the on-disk credential store the failover chain
// reads from (see buildChain in wire.go). A provider's environment variable
// (credentials.EnvVarNames) always works too — this just covers the
// persisted alternative spec.md §6 expects for a non-interactive CLI.
func buildAuthCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored provider credentials",
	}
	root.AddCommand(buildAuthSetCmd(), buildAuthListCmd())
	return root
}

func openCredentialStore() (*credentials.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return credentials.New(cfg.CredentialsDir)
}

func buildAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> <key>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCredentialStore()
			if err != nil {
				return err
			}
			if err := store.StoreKey(args[0], args[1]); err != nil {
				return fmt.Errorf("radium: store key for %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored credential for %s\n", args[0])
			return nil
		},
	}
}

// knownProviders is checked in addition to the store's file-backed list so
// that env-var-only configuration (no `auth set` ever run) still shows up.
var knownProviders = []string{"anthropic", "openai", "google", "bedrock", "venice"}

func buildAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers with a configured credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCredentialStore()
			if err != nil {
				return err
			}
			seen := make(map[string]bool)
			for _, provider := range append(store.List(), knownProviders...) {
				if seen[provider] {
					continue
				}
				seen[provider] = true
				_, source, err := store.Get(provider)
				if err != nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", provider, source)
			}
			return nil
		},
	}
}

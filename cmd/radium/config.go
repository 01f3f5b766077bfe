// Package main is the radium CLI: a thin entrypoint that wires the
// orchestrator to stdin/stdout and exits. It deliberately stays minimal —
// plan generation quality and TUI layout are not this CLI's concern.
//
// config.go loads the on-disk runtime configuration and fills in the
// conventional ~/.radium paths the rest of the runtime expects, following a
// load-with-built-in-defaults config-resolution style scaled down to what
// this thinner CLI actually needs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/radium-run/radium/internal/mcp"
	"github.com/radium-run/radium/pkg/radium"
)

// ProvidersConfig lists the failover order of engines to try. Each named
// engine is only wired into the chain if the credential store (or its
// environment-variable fallback) has a key for it — see buildChain.
type ProvidersConfig struct {
	Order []string `yaml:"order,omitempty"`
}

// AgentConfig is the single agent this CLI drives per invocation. Multi-agent
// registries are a runtime concern, not a CLI one — spec.md's plan generation
// and TUI layout are explicitly out of scope.
type AgentConfig struct {
	ID         string       `yaml:"id"`
	Name       string       `yaml:"name"`
	PromptPath string       `yaml:"prompt_path,omitempty"`
	Models     radium.Models `yaml:"models"`
}

// Config is radium.yaml's shape.
type Config struct {
	WorkspaceRoot  string          `yaml:"workspace_root"`
	StateDir       string          `yaml:"state_dir"`
	CredentialsDir string          `yaml:"credentials_dir"`
	PolicyFile     string          `yaml:"policy_file"`
	CostConfigFile string          `yaml:"cost_config_file"`
	ApprovalMode   string          `yaml:"approval_mode"`
	MaxIterations  int             `yaml:"max_iterations"`
	ApprovalSecret string          `yaml:"approval_token_secret"`
	Agent          AgentConfig     `yaml:"agent"`
	Providers      ProvidersConfig `yaml:"providers"`
	MCP            mcp.Config      `yaml:"mcp"`
}

// defaultConfigPath is where the CLI looks absent an explicit --config flag.
const defaultConfigPath = "radium.yaml"

// radiumHome returns ~/.radium, creating nothing — callers create the
// subdirectories they actually need.
func radiumHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".radium"
	}
	return filepath.Join(home, ".radium")
}

// loadConfig reads path (falling back to built-in defaults for any field
// left blank). A missing file is not an error: every field defaults to a
// path under ~/.radium, mirroring the credential store and session/policy
// conventions spec.md §6 describes.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{
		WorkspaceRoot:  ".",
		StateDir:       filepath.Join(radiumHome(), "sessions"),
		CredentialsDir: filepath.Join(radiumHome(), "auth"),
		PolicyFile:     filepath.Join(radiumHome(), "policy.toml"),
		CostConfigFile: filepath.Join(radiumHome(), "engine-costs.toml"),
		ApprovalMode:   string(radium.ApprovalAsk),
		MaxIterations:  10,
		Agent: AgentConfig{
			ID:     "default",
			Name:   "radium",
			Models: radium.Models{Primary: "claude-sonnet-4-5"},
		},
		Providers: ProvidersConfig{Order: []string{"anthropic", "openai", "bedrock", "venice"}},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("radium: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("radium: parse config %s: %w", path, err)
	}
	return cfg, nil
}

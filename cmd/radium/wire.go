package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/radium-run/radium/internal/approvals"
	"github.com/radium-run/radium/internal/checkpoint"
	"github.com/radium-run/radium/internal/credentials"
	"github.com/radium-run/radium/internal/costconfig"
	"github.com/radium-run/radium/internal/hooks"
	"github.com/radium-run/radium/internal/mcp"
	"github.com/radium-run/radium/internal/models"
	"github.com/radium-run/radium/internal/orchestrator"
	"github.com/radium-run/radium/internal/policy"
	"github.com/radium-run/radium/internal/policyconfig"
	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/internal/providers/anthropic"
	"github.com/radium-run/radium/internal/providers/bedrock"
	"github.com/radium-run/radium/internal/providers/openai"
	"github.com/radium-run/radium/internal/providers/venice"
	"github.com/radium-run/radium/internal/sessions"
	"github.com/radium-run/radium/internal/telemetry"
	"github.com/radium-run/radium/internal/tools"
	"github.com/radium-run/radium/internal/tools/builtin"
	"github.com/radium-run/radium/pkg/radium"
)

// runtime bundles every constructed dependency a CLI command needs, plus a
// close function releasing the ones that hold file handles.
type runtime struct {
	cfg       *Config
	sessions  *sessions.Manager
	orch      *orchestrator.Orchestrator
	approvals *approvals.Waiter
	logger    *slog.Logger

	close func()
}

// buildRuntime wires every component into one Orchestrator, following the
// conventional "load config, build stores, build the loop, run" sequence
// scaled to this runtime's narrower component set.
func buildRuntime(ctx context.Context, cfg *Config, logger *slog.Logger) (*runtime, error) {
	sessionMgr, err := sessions.NewManager(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("radium: session manager: %w", err)
	}

	credStore, err := credentials.New(cfg.CredentialsDir)
	if err != nil {
		sessionMgr.Close()
		return nil, fmt.Errorf("radium: credential store: %w", err)
	}

	costCfg, err := costconfig.Load(cfg.CostConfigFile)
	if err != nil {
		sessionMgr.Close()
		return nil, fmt.Errorf("radium: cost config: %w", err)
	}
	costTracker := costconfig.NewTracker(costCfg)

	chain, err := buildChain(ctx, cfg, credStore, costTracker, logger)
	if err != nil {
		sessionMgr.Close()
		return nil, err
	}
	warnUnknownModels(cfg.Agent.Models, logger)

	toolRegistry := tools.NewRegistry()
	builtin.RegisterDefaults(toolRegistry, cfg.WorkspaceRoot)
	if cfg.MCP.Enabled {
		mcpManager := mcp.NewManager(&cfg.MCP, logger)
		mcp.RegisterServerTools(toolRegistry, mcpManager)
	}

	policyEngine := policy.NewEngine(nil, logger)
	policyWatcher := policyconfig.NewWatcher(cfg.PolicyFile, policyEngine, logger)
	if err := policyWatcher.Start(ctx); err != nil {
		sessionMgr.Close()
		return nil, fmt.Errorf("radium: policy watcher: %w", err)
	}

	hookRegistry := hooks.NewRegistry(logger)
	collector := telemetry.NewCollector(nil, nil)
	if err := collector.Register(hookRegistry); err != nil {
		sessionMgr.Close()
		policyWatcher.Close()
		return nil, fmt.Errorf("radium: telemetry: %w", err)
	}

	waiter := approvals.NewWaiter()

	orchCfg := orchestrator.Config{MaxIterations: cfg.MaxIterations, ApprovalMode: radium.ApprovalMode(cfg.ApprovalMode)}
	checkpointWriter := checkpoint.NewWriter(filepath.Join(cfg.StateDir, "checkpoints"))
	orch := orchestrator.New(chain, toolRegistry, policyEngine, hookRegistry, sessionMgr, waiter, orchCfg, logger).
		WithCheckpointWriter(checkpointWriter)

	return &runtime{
		cfg:       cfg,
		sessions:  sessionMgr,
		orch:      orch,
		approvals: waiter,
		logger:    logger,
		close: func() {
			policyWatcher.Close()
			sessionMgr.Close()
		},
	}, nil
}

// warnUnknownModels logs (never fails) when a configured model id isn't in
// the built-in catalog — likely a typo, or a genuinely new model the
// catalog hasn't been updated for yet; either way the failover chain still
// tries it verbatim against the provider's API.
func warnUnknownModels(cfgModels radium.Models, logger *slog.Logger) {
	for _, id := range []string{cfgModels.Primary, cfgModels.Fallback, cfgModels.Premium} {
		if id == "" {
			continue
		}
		if _, ok := models.Get(id); !ok {
			logger.Warn("configured model not in catalog", "model", id)
		}
	}
}

// buildChain constructs the failover chain (spec.md §4.2) from every
// provider named in cfg.Providers.Order whose credential is available,
// skipping the rest rather than failing — a partially configured engine set
// is normal for local development.
func buildChain(ctx context.Context, cfg *Config, credStore *credentials.Store, cost providers.CostTracker, logger *slog.Logger) (*providers.Chain, error) {
	var chainProviders []providers.Provider
	for _, name := range cfg.Providers.Order {
		key, _, err := credStore.Get(name)
		if err != nil {
			continue
		}
		switch name {
		case "anthropic":
			chainProviders = append(chainProviders, anthropic.New(key, "anthropic"))
		case "openai":
			chainProviders = append(chainProviders, openai.New(key, "openai"))
		case "bedrock":
			region := os.Getenv("AWS_REGION")
			if region == "" {
				region = "us-east-1"
			}
			adapter, err := bedrock.New(ctx, region, "bedrock")
			if err != nil {
				logger.Warn("skipping bedrock provider", "error", err)
				continue
			}
			chainProviders = append(chainProviders, adapter)
			discoverBedrockModels(ctx, region, logger)
		case "venice":
			chainProviders = append(chainProviders, venice.New(key, "venice"))
		}
	}
	if len(chainProviders) == 0 {
		return nil, fmt.Errorf("radium: no configured providers (checked %v); run `radium auth set <provider> <key>`", cfg.Providers.Order)
	}
	return providers.NewChain(chainProviders, providers.DefaultConfig(), cost, logger), nil
}

// discoverBedrockModels registers whatever foundation models AWS reports
// for region into the default catalog, best-effort — a discovery failure
// (no AWS credentials, region not enabled) just leaves the catalog's static
// Bedrock entries in place.
func discoverBedrockModels(ctx context.Context, region string, logger *slog.Logger) {
	discovery := models.NewBedrockDiscovery(models.BedrockDiscoveryConfig{Enabled: true, Region: region}, logger)
	if err := discovery.RegisterWithCatalog(ctx, models.DefaultCatalog); err != nil {
		logger.Debug("bedrock model discovery skipped", "error", err)
	}
}

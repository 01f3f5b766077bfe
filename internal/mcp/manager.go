package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/radium-run/radium/internal/retry"
)

// Manager owns every configured MCP server connection, grounded on
// internal/mcp/manager.go.
type Manager struct {
	config  *Config
	logger  *slog.Logger
	clients map[string]*Client
	mu      sync.RWMutex
}

// Config holds the MCP manager configuration.
type Config struct {
	Enabled bool            `yaml:"enabled"`
	Servers []*ServerConfig `yaml:"servers"`
}

// NewManager creates a manager for cfg.
func NewManager(cfg *Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{config: cfg, logger: logger.With("component", "mcp"), clients: make(map[string]*Client)}
}

// Start connects every server with AutoStart set, logging (not failing) on
// a per-server connect error so one bad server doesn't block the rest.
func (m *Manager) Start(ctx context.Context) error {
	if m.config == nil || !m.config.Enabled {
		m.logger.Debug("MCP disabled")
		return nil
	}
	for _, serverCfg := range m.config.Servers {
		if !serverCfg.AutoStart {
			continue
		}
		if err := m.Connect(ctx, serverCfg.ID); err != nil {
			m.logger.Error("failed to connect to MCP server", "server", serverCfg.ID, "error", err)
		}
	}
	return nil
}

// Stop disconnects every connected server.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, client := range m.clients {
		if err := client.Close(); err != nil {
			m.logger.Error("failed to close MCP client", "server", id, "error", err)
		}
		delete(m.clients, id)
	}
	return nil
}

// Connect connects to the named server if not already connected.
func (m *Manager) Connect(ctx context.Context, serverID string) error {
	var serverCfg *ServerConfig
	for _, cfg := range m.config.Servers {
		if cfg.ID == serverID {
			serverCfg = cfg
			break
		}
	}
	if serverCfg == nil {
		return fmt.Errorf("server %q not found in config", serverID)
	}

	m.mu.RLock()
	if _, exists := m.clients[serverID]; exists {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	client := NewClient(serverCfg, m.logger)
	result := retry.Do(ctx, retry.Exponential(3, 200*time.Millisecond, 5*time.Second), func() error {
		return client.Connect(ctx)
	})
	if result.Err != nil {
		return mapConnectError(serverID, result.Err)
	}

	m.mu.Lock()
	m.clients[serverID] = client
	m.mu.Unlock()

	m.logger.Info("connected to MCP server", "server", serverID, "name", client.ServerInfo().Name)
	return nil
}

// Disconnect closes and forgets the named server's connection.
func (m *Manager) Disconnect(serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[serverID]
	if !exists {
		return nil
	}
	if err := client.Close(); err != nil {
		return err
	}
	delete(m.clients, serverID)
	m.logger.Info("disconnected from MCP server", "server", serverID)
	return nil
}

// Client returns the connected client for serverID, if any.
func (m *Manager) Client(serverID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, exists := m.clients[serverID]
	return client, exists
}

// Clients returns a snapshot of every connected client.
func (m *Manager) Clients() map[string]*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]*Client, len(m.clients))
	for id, client := range m.clients {
		result[id] = client
	}
	return result
}

// AllTools returns every connected server's cached tool list, by server ID.
func (m *Manager) AllTools() map[string][]*MCPTool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]*MCPTool)
	for id, client := range m.clients {
		if tools := client.Tools(); len(tools) > 0 {
			result[id] = tools
		}
	}
	return result
}

// AllResources returns every connected server's cached resource list.
func (m *Manager) AllResources() map[string][]*MCPResource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]*MCPResource)
	for id, client := range m.clients {
		if resources := client.Resources(); len(resources) > 0 {
			result[id] = resources
		}
	}
	return result
}

// AllPrompts returns every connected server's cached prompt list.
func (m *Manager) AllPrompts() map[string][]*MCPPrompt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]*MCPPrompt)
	for id, client := range m.clients {
		if prompts := client.Prompts(); len(prompts) > 0 {
			result[id] = prompts
		}
	}
	return result
}

// CallTool invokes toolName on serverID.
func (m *Manager) CallTool(ctx context.Context, serverID, toolName string, arguments map[string]any) (*ToolCallResult, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}
	result, err := client.CallTool(ctx, toolName, arguments)
	if err != nil {
		return nil, mapProtocolError(serverID, err)
	}
	return result, nil
}

// FindTool locates a tool by name across all connected servers.
func (m *Manager) FindTool(name string) (serverID string, tool *MCPTool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, client := range m.clients {
		for _, t := range client.Tools() {
			if t.Name == name {
				return id, t
			}
		}
	}
	return "", nil
}

// ReadResource reads uri from serverID.
func (m *Manager) ReadResource(ctx context.Context, serverID, uri string) ([]*ResourceContent, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}
	return client.ReadResource(ctx, uri)
}

// GetPrompt fetches name from serverID.
func (m *Manager) GetPrompt(ctx context.Context, serverID, name string, arguments map[string]string) (*GetPromptResult, error) {
	client, exists := m.Client(serverID)
	if !exists {
		return nil, fmt.Errorf("server %q not connected", serverID)
	}
	return client.GetPrompt(ctx, name, arguments)
}

// ServerStatus reports a configured server's connection state.
type ServerStatus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Connected bool       `json:"connected"`
	Server    ServerInfo `json:"server"`
	Tools     int        `json:"tools"`
	Resources int        `json:"resources"`
	Prompts   int        `json:"prompts"`
}

// Status reports every configured server's connection state.
func (m *Manager) Status() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var statuses []ServerStatus
	for _, cfg := range m.config.Servers {
		status := ServerStatus{ID: cfg.ID, Name: cfg.Name}
		if client, exists := m.clients[cfg.ID]; exists {
			status.Connected = client.Connected()
			status.Server = client.ServerInfo()
			status.Tools = len(client.Tools())
			status.Resources = len(client.Resources())
			status.Prompts = len(client.Prompts())
		}
		statuses = append(statuses, status)
	}
	return statuses
}

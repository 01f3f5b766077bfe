// Package costconfig implements the engine cost configuration (spec.md §6):
// a TOML document of `{cost_per_second, min_billable_duration}` per engine
// id, used by the failover controller's CostTracker to attribute billable
// cost after each completed call.
//
// Grounded on original_source/crates/radium-core/src/config/engine_costs.rs
// for the exact shape (`[engines.<id>] cost_per_second, min_billable_duration`,
// missing file ⇒ empty map not an error, negative values reject at load) and
// internal/config/loader.go's TOML-via-pelletier/go-toml convention for
// config parsing in this codebase.
package costconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/radium-run/radium/pkg/radium"
)

// EngineConfig is one engine's billing rate.
type EngineConfig struct {
	CostPerSecond       float64 `toml:"cost_per_second"`
	MinBillableDuration float64 `toml:"min_billable_duration"`
}

type document struct {
	Engines map[string]EngineConfig `toml:"engines"`
}

// Config is the loaded engine cost table, safe for concurrent reads and
// reloads.
type Config struct {
	path string

	mu      sync.RWMutex
	engines map[string]EngineConfig
}

// Load reads path's TOML document. A missing file yields an empty Config,
// not an error (spec.md §6: "Missing file ⇒ empty map, not an error").
// Negative cost_per_second or min_billable_duration values reject at load.
func Load(path string) (*Config, error) {
	c := &Config{path: path, engines: make(map[string]EngineConfig)}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			c.engines = make(map[string]EngineConfig)
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("costconfig: read %s: %w", c.path, err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("costconfig: parse %s: %w", c.path, err)
	}
	if doc.Engines == nil {
		doc.Engines = make(map[string]EngineConfig)
	}
	if err := validate(doc.Engines); err != nil {
		return err
	}

	c.mu.Lock()
	c.engines = doc.Engines
	c.mu.Unlock()
	return nil
}

func validate(engines map[string]EngineConfig) error {
	for id, cfg := range engines {
		if cfg.CostPerSecond < 0 {
			return fmt.Errorf("costconfig: engine %q: cost_per_second must be >= 0", id)
		}
		if cfg.MinBillableDuration < 0 {
			return fmt.Errorf("costconfig: engine %q: min_billable_duration must be >= 0", id)
		}
	}
	return nil
}

// Reload re-reads the config file from disk, replacing the in-memory table
// on success and leaving it untouched on error.
func (c *Config) Reload() error { return c.reload() }

// Rate returns engineID's billing rate, if configured.
func (c *Config) Rate(engineID string) (EngineConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.engines[engineID]
	return cfg, ok
}

// Save writes the config's current engine table back to its file, creating
// parent directories as needed.
func (c *Config) Save() error {
	c.mu.RLock()
	doc := document{Engines: c.engines}
	c.mu.RUnlock()

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("costconfig: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("costconfig: create directory: %w", err)
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Tracker adapts Config into internal/providers.CostTracker, attributing a
// completed call's billable duration at the engine's configured rate
// (durations below MinBillableDuration are billed at the minimum).
type Tracker struct {
	cfg   *Config
	mu    sync.Mutex
	spent map[string]float64 // engine -> accumulated USD
}

// NewTracker wraps cfg as a providers.CostTracker.
func NewTracker(cfg *Config) *Tracker {
	return &Tracker{cfg: cfg, spent: make(map[string]float64)}
}

// RecordUsage attributes duration of engine usage at its configured rate.
// Engines with no configured rate are not billed.
func (t *Tracker) RecordUsage(engine string, duration time.Duration, _ *radium.TokenUsage) {
	rate, ok := t.cfg.Rate(engine)
	if !ok {
		return
	}
	billable := duration.Seconds()
	if billable < rate.MinBillableDuration {
		billable = rate.MinBillableDuration
	}

	t.mu.Lock()
	t.spent[engine] += billable * rate.CostPerSecond
	t.mu.Unlock()
}

// Spent returns the accumulated USD billed to engine so far.
func (t *Tracker) Spent(engine string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spent[engine]
}

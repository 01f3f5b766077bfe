// Package policyconfig loads the Policy Engine's rule set (spec.md §6): a
// TOML document listing rules with fields `{name, tool_pattern, arg_pattern?,
// action, priority?, reason?}`, loaded at startup and on explicit reload,
// with an optional fsnotify watch for on-disk edits.
//
// Grounded on internal/templates/registry.go's fsnotify debounced-watch-loop
// pattern (NewWatcher, a single-flight debounce timer, Events/Errors select)
// for the hot-reload half, and internal/policy/engine.go's existing
// Engine.Reload(rules) for applying a freshly loaded rule set.
package policyconfig

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml"

	"github.com/radium-run/radium/internal/policy"
	"github.com/radium-run/radium/pkg/radium"
)

type document struct {
	Rules []radium.PolicyRule `toml:"rules"`
}

// Load reads path's TOML rule list. A missing file yields no rules, not an
// error — an engine with zero rules simply falls back to its approval-mode
// default for every tool call.
func Load(path string) ([]radium.PolicyRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("policyconfig: read %s: %w", path, err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policyconfig: parse %s: %w", path, err)
	}
	return doc.Rules, nil
}

// Watcher reloads path into engine whenever the file changes on disk,
// debouncing bursts of edits into a single reload.
type Watcher struct {
	path     string
	engine   *policy.Engine
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher builds a watcher for path, reloading into engine on change.
func NewWatcher(path string, engine *policy.Engine, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, engine: engine, logger: logger, debounce: 250 * time.Millisecond}
}

// Start performs an initial load and begins watching path for changes,
// until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	rules, err := Load(w.path)
	if err != nil {
		return err
	}
	w.engine.Reload(rules)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("policyconfig: create watcher: %w", err)
	}
	if err := watcher.Add(w.path); err != nil {
		// The rule file may not exist yet; watch its directory instead so a
		// later create is still observed.
		if dirErr := watcher.Add(filepath.Dir(w.path)); dirErr != nil {
			watcher.Close()
			return fmt.Errorf("policyconfig: watch %s: %w", w.path, err)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = watcher
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watchLoop(watchCtx, watcher)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	watcher := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if watcher != nil {
		_ = watcher.Close()
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()

	var timer *time.Timer
	scheduleReload := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			rules, err := Load(w.path)
			if err != nil {
				w.logger.Warn("policy rule reload failed", "error", err)
				return
			}
			w.engine.Reload(rules)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("policy file watch error", "error", err)
		}
	}
}

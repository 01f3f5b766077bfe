// Package checkpoint implements the write-once failover checkpoint named in
// spec.md §4.2/§9: when every provider candidate reports QuotaExceeded, the
// orchestrator persists the full message list and candidate progress so a
// later restart can pick up where it stopped.
//
// Grounded on original_source/crates/radium-core/src/workflow/behaviors/
// checkpoint.rs's CheckpointState: a small serializable struct with an
// active/triggered_at envelope, written once and never mutated in place.
// Persisted the way internal/credentials stores its JSON file (0600,
// directory created on demand).
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/radium-run/radium/pkg/radium"
)

// Candidate records one failover candidate's outcome at checkpoint time.
type Candidate struct {
	Name      string `json:"name"`
	Exhausted bool   `json:"exhausted"`
}

// State is the resumable snapshot written when a request's provider chain
// is exhausted. Active is always true at write time; a checkpoint file is
// never mutated in place, so its mere presence on disk signals that a
// request never finished.
type State struct {
	Active        bool             `json:"active"`
	TriggeredAt   time.Time        `json:"triggered_at"`
	CorrelationID string           `json:"correlation_id"`
	SessionID     string           `json:"session_id,omitempty"`
	Input         string           `json:"input"`
	Messages      []radium.Message `json:"messages"`
	Candidates    []Candidate      `json:"candidates"`
	Reason        string           `json:"reason,omitempty"`
}

// Writer persists checkpoint artifacts as one JSON file per correlation id
// under a directory.
type Writer struct {
	dir string
}

// NewWriter builds a Writer rooted at dir (conventionally the workspace
// state directory's "checkpoints" subdirectory).
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stamps state as active and triggered now, then writes it once to
// dir/checkpoint-<correlation-id>.json. It returns the path written.
func (w *Writer) Write(state State) (string, error) {
	if w.dir == "" {
		return "", errors.New("checkpoint: writer has no directory")
	}
	if state.CorrelationID == "" {
		return "", errors.New("checkpoint: correlation id is required")
	}
	state.Active = true
	if state.TriggeredAt.IsZero() {
		state.TriggeredAt = time.Now()
	}

	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return "", fmt.Errorf("checkpoint: creating directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("checkpoint: marshal: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("checkpoint-%s.json", state.CorrelationID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("checkpoint: write: %w", err)
	}
	return path, nil
}

// Read loads a previously written checkpoint by correlation id, for a
// future restart to resume from.
func (w *Writer) Read(correlationID string) (State, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("checkpoint-%s.json", correlationID))
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("checkpoint: read: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("checkpoint: unmarshal: %w", err)
	}
	return state, nil
}

// Package sessions implements the Session & Event Model's session manager
// (spec.md §4.5): one directory per session id under a state root, a single
// JSON document for metadata plus append-ordered message/tool-call/approval
// sub-records, and content-addressable artifact storage.
//
// Grounded on internal/sessions/{store,memory,write_lock}.go (the Store
// interface shape, clone-before-mutate discipline, and the per-session
// exclusive lock), retargeted from pkg/models.Session to pkg/radium.Session
// and from a single in-memory map to the disk layout spec.md §6 describes
// ("Session storage: one directory per session under the workspace's state
// directory; JSON files are human-readable; artifact binaries live in a
// sibling artifacts/ directory").
package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/radium-run/radium/pkg/radium"
)

var ErrNotFound = errors.New("sessions: not found")

const sessionFileName = "session.json"
const artifactsDirName = "artifacts"

// DefaultPageSize is spec.md §4.5's default listing page size.
const DefaultPageSize = 50

// ListOptions filters and paginates List (spec.md §4.5: "list(page, size,
// state?, agent?)").
type ListOptions struct {
	Page    int
	Size    int
	State   radium.SessionState
	AgentID string
}

// Manager is the session manager. One Manager serves every session under
// Root; per-session exclusive access is enforced by lock (spec.md §5:
// "one exclusive writer per session id; concurrent writes to the same
// session are serialized; different sessions proceed in parallel").
type Manager struct {
	root  string
	lock  *SessionLocker
	index *Index
}

// NewManager creates a manager rooted at dir, creating it if necessary,
// with a sqlite secondary index (internal/sessions/index.go) backing List.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("sessions: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create root: %w", err)
	}
	index, err := NewIndex(dir)
	if err != nil {
		return nil, err
	}
	return &Manager{root: dir, lock: NewSessionLocker(DefaultLockTimeout), index: index}, nil
}

// Close releases the manager's secondary index handle.
func (m *Manager) Close() error {
	if m.index == nil {
		return nil
	}
	return m.index.Close()
}

func (m *Manager) sessionDir(id string) string { return filepath.Join(m.root, id) }
func (m *Manager) sessionFile(id string) string {
	return filepath.Join(m.sessionDir(id), sessionFileName)
}

// Create persists a new session, generating an id if one wasn't supplied.
func (m *Manager) Create(ctx context.Context, session *radium.Session) error {
	if session == nil {
		return errors.New("sessions: session is required")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := m.lock.LockWithContext(ctx, session.ID); err != nil {
		return err
	}
	defer m.lock.Unlock(session.ID)

	now := time.Now()
	session.CreatedAt = now
	session.LastActive = now
	if session.State == "" {
		session.State = radium.SessionActive
	}

	if err := os.MkdirAll(filepath.Join(m.sessionDir(session.ID), artifactsDirName), 0o755); err != nil {
		return fmt.Errorf("sessions: create directory: %w", err)
	}
	if err := m.write(session); err != nil {
		return err
	}
	return m.reindex(ctx, session)
}

// Get loads a session by id.
func (m *Manager) Get(ctx context.Context, id string) (*radium.Session, error) {
	return m.read(id)
}

// Attach refreshes a session's last_active timestamp, per spec.md §4.5
// ("All mutation methods update last_active").
func (m *Manager) Attach(ctx context.Context, id string) error {
	return m.mutate(ctx, id, func(*radium.Session) error { return nil })
}

// AppendMessage appends msg to the session's transcript.
func (m *Manager) AppendMessage(ctx context.Context, sessionID string, msg radium.Message) error {
	return m.mutate(ctx, sessionID, func(s *radium.Session) error {
		s.Messages = append(s.Messages, msg)
		return nil
	})
}

// AppendToolCall appends a tool call record to the session.
func (m *Manager) AppendToolCall(ctx context.Context, sessionID string, call radium.ToolCall) error {
	return m.mutate(ctx, sessionID, func(s *radium.Session) error {
		s.ToolCalls = append(s.ToolCalls, call)
		return nil
	})
}

// AppendApproval appends an approval decision to the session.
func (m *Manager) AppendApproval(ctx context.Context, sessionID string, approval radium.Approval) error {
	return m.mutate(ctx, sessionID, func(s *radium.Session) error {
		s.Approvals = append(s.Approvals, approval)
		return nil
	})
}

// UpdateState transitions a session to a new state. No further mutation is
// accepted once a session reaches a terminal state (spec.md §3 invariant c).
func (m *Manager) UpdateState(ctx context.Context, sessionID string, state radium.SessionState) error {
	return m.mutate(ctx, sessionID, func(s *radium.Session) error {
		s.State = state
		return nil
	})
}

// SaveArtifact writes data under the session's artifacts directory, named by
// its content hash, and records it on the session. It returns the path for
// later retrieval (spec.md §4.5: "Artifact storage is content-addressable
// within the session directory").
func (m *Manager) SaveArtifact(ctx context.Context, sessionID, name string, data []byte) (string, error) {
	if err := m.lock.LockWithContext(ctx, sessionID); err != nil {
		return "", err
	}
	defer m.lock.Unlock(sessionID)

	session, err := m.read(sessionID)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	fileName := hex.EncodeToString(sum[:8]) + "-" + filepath.Base(name)
	path := filepath.Join(m.sessionDir(sessionID), artifactsDirName, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("sessions: write artifact: %w", err)
	}

	session.Artifacts = append(session.Artifacts, radium.Artifact{
		Name: name,
		Path: path,
		Size: int64(len(data)),
	})
	session.LastActive = time.Now()
	if err := m.write(session); err != nil {
		return "", err
	}
	if err := m.reindex(ctx, session); err != nil {
		return "", err
	}
	return path, nil
}

// Delete removes a session and its artifacts.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.lock.LockWithContext(ctx, id); err != nil {
		return err
	}
	defer m.lock.Unlock(id)

	if _, err := os.Stat(m.sessionFile(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if err := os.RemoveAll(m.sessionDir(id)); err != nil {
		return err
	}
	if m.index != nil {
		return m.index.Remove(ctx, id)
	}
	return nil
}

// reindex refreshes session's row in the secondary index. Index failures
// are not fatal to the mutation that triggered them — List falls back to
// a full directory scan, so a stale or unavailable index degrades
// performance, not correctness.
func (m *Manager) reindex(ctx context.Context, session *radium.Session) error {
	if m.index == nil {
		return nil
	}
	return m.index.Upsert(ctx, session)
}

// List returns sessions matching opts, paginated (default page=1, size=50
// per spec.md §4.5), newest-last_active first. Uses the sqlite secondary
// index when available so filtering/pagination doesn't require reading
// every session file; falls back to a full directory scan otherwise.
func (m *Manager) List(ctx context.Context, opts ListOptions) ([]*radium.Session, error) {
	if m.index != nil {
		if ids, err := m.index.Query(ctx, opts); err == nil {
			out := make([]*radium.Session, 0, len(ids))
			for _, id := range ids {
				session, err := m.read(id)
				if err != nil {
					continue
				}
				out = append(out, session)
			}
			return out, nil
		}
	}
	return m.listByScan(opts)
}

func (m *Manager) listByScan(opts ListOptions) ([]*radium.Session, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sessions: list root: %w", err)
	}

	var matched []*radium.Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		session, err := m.read(entry.Name())
		if err != nil {
			continue
		}
		if opts.AgentID != "" && session.AgentID != opts.AgentID {
			continue
		}
		if opts.State != "" && session.State != opts.State {
			continue
		}
		matched = append(matched, session)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastActive.After(matched[j].LastActive)
	})

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []*radium.Session{}, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(*radium.Session) error) error {
	if err := m.lock.LockWithContext(ctx, sessionID); err != nil {
		return err
	}
	defer m.lock.Unlock(sessionID)

	session, err := m.read(sessionID)
	if err != nil {
		return err
	}
	if session.State.Terminal() {
		return fmt.Errorf("sessions: session %s is already terminal (%s)", sessionID, session.State)
	}
	if err := fn(session); err != nil {
		return err
	}
	session.LastActive = time.Now()
	if err := m.write(session); err != nil {
		return err
	}
	return m.reindex(ctx, session)
}

func (m *Manager) read(id string) (*radium.Session, error) {
	data, err := os.ReadFile(m.sessionFile(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessions: read %s: %w", id, err)
	}
	var session radium.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("sessions: decode %s: %w", id, err)
	}
	return &session, nil
}

func (m *Manager) write(session *radium.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("sessions: encode %s: %w", session.ID, err)
	}
	tmp := m.sessionFile(session.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("sessions: write %s: %w", session.ID, err)
	}
	return os.Rename(tmp, m.sessionFile(session.ID))
}

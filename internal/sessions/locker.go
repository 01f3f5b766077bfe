package sessions

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when acquiring a session lock times out.
var ErrLockTimeout = errors.New("sessions: lock acquisition timeout")

// DefaultLockTimeout bounds how long a mutation waits for another writer to
// release the same session id (spec.md §5: "one exclusive writer per
// session id").
const DefaultLockTimeout = 5 * time.Second

const lockPollInterval = 5 * time.Millisecond

type sessionMutex struct {
	mu     sync.Mutex
	locked bool
}

// SessionLocker hands out one exclusive lock per session id, grounded on
// internal/sessions/write_lock.go's SessionLocker — trimmed to the local,
// in-process case; a separate Postgres-lease DBLocker has no home here
// since nothing in this module runs session storage across multiple
// processes.
type SessionLocker struct {
	locks   sync.Map // map[string]*sessionMutex
	timeout time.Duration
}

// NewSessionLocker creates a locker with the given default timeout.
func NewSessionLocker(timeout time.Duration) *SessionLocker {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &SessionLocker{timeout: timeout}
}

func (s *SessionLocker) getOrCreateMutex(sessionID string) *sessionMutex {
	if m, ok := s.locks.Load(sessionID); ok {
		return m.(*sessionMutex)
	}
	actual, _ := s.locks.LoadOrStore(sessionID, &sessionMutex{})
	return actual.(*sessionMutex)
}

// LockWithContext blocks until sessionID's lock is free, the locker's
// timeout elapses, or ctx ends.
func (s *SessionLocker) LockWithContext(ctx context.Context, sessionID string) error {
	m := s.getOrCreateMutex(sessionID)
	deadline := time.Now().Add(s.timeout)

	for {
		m.mu.Lock()
		if !m.locked {
			m.locked = true
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// Unlock releases sessionID's lock. Safe to call even if not held.
func (s *SessionLocker) Unlock(sessionID string) {
	m, ok := s.locks.Load(sessionID)
	if !ok {
		return
	}
	mu := m.(*sessionMutex)
	mu.mu.Lock()
	mu.locked = false
	mu.mu.Unlock()
}

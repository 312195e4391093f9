package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned for a user with no live flow (never started or expired).
var ErrNoSession = errors.New("no active booking flow, start a new one")

// SessionStore keeps exactly one session per user; Save overwrites.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID string) error
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore is a process-local SessionStore with idle expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{sessions: make(map[string]memoryEntry), ttl: ttl, now: now}
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.sessions, userID)
		return nil, ErrNoSession
	}
	return e.session.clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.UserID] = memoryEntry{session: session.clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

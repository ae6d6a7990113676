package elevation

import (
	"context"
	"sync"
	"time"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// Store defines the persistence interface for elevated sessions.
// Error Contract:
// - FindByToken returns sentinel.ErrNotFound when no session exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Create(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token domain.SessionToken) (*Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// InMemoryStore stores elevated sessions in memory for tests/dev.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionToken]*Session
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionToken]*Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copySession := *session
	s.sessions[session.Token] = &copySession
	return nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token domain.SessionToken) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copySession := *session
	return &copySession, nil
}

// DeleteExpired removes all sessions that have expired as of the given time.
// The time parameter is injected for testability (no hidden time.Now() calls).
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

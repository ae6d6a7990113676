package signals

import (
	"context"
	"sync"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// Store defines the persistence interface for signal toggles.
// Error Contract:
// - Get returns sentinel.ErrNotFound when no toggle exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Get(ctx context.Context, userID domain.UserID, key domain.SignalKey) (*Toggle, error)
	Upsert(ctx context.Context, toggle *Toggle) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]*Toggle, error)
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}

type toggleKey struct {
	userID domain.UserID
	key    domain.SignalKey
}

// InMemoryStore stores signal toggles in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	toggles map[toggleKey]*Toggle
}

// NewInMemory constructs an empty in-memory toggle store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{toggles: make(map[toggleKey]*Toggle)}
}

func (s *InMemoryStore) Get(_ context.Context, userID domain.UserID, key domain.SignalKey) (*Toggle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	toggle, ok := s.toggles[toggleKey{userID, key}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyToggle := *toggle
	return &copyToggle, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, toggle *Toggle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyToggle := *toggle
	s.toggles[toggleKey{toggle.UserID, toggle.SignalKey}] = &copyToggle
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]*Toggle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var toggles []*Toggle
	for key, toggle := range s.toggles {
		if key.userID == userID {
			copyToggle := *toggle
			toggles = append(toggles, &copyToggle)
		}
	}
	return toggles, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.toggles {
		if key.userID == userID {
			delete(s.toggles, key)
		}
	}
	return nil
}

package allowlist

import (
	"context"
	"sync"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// Store defines the persistence interface for allowlist entries.
// Error Contract:
// - Get returns sentinel.ErrNotFound when no entry exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Get(ctx context.Context, userID domain.UserID, appID domain.AppID) (*Entry, error)
	Upsert(ctx context.Context, entry *Entry) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]*Entry, error)
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}

type entryKey struct {
	userID domain.UserID
	appID  domain.AppID
}

// InMemoryStore stores allowlist entries in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]*Entry
}

// NewInMemory constructs an empty in-memory allowlist store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[entryKey]*Entry)}
}

func (s *InMemoryStore) Get(_ context.Context, userID domain.UserID, appID domain.AppID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryKey{userID, appID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyEntry := *entry
	return &copyEntry, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyEntry := *entry
	s.entries[entryKey{entry.UserID, entry.AppID}] = &copyEntry
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*Entry
	for key, entry := range s.entries {
		if key.userID == userID {
			copyEntry := *entry
			entries = append(entries, &copyEntry)
		}
	}
	return entries, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.userID == userID {
			delete(s.entries, key)
		}
	}
	return nil
}

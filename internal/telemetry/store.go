package telemetry

import (
	"context"
	"sync"

	domain "sentra/pkg/domain"
)

// Store defines the persistence interface for admitted telemetry events.
type Store interface {
	Insert(ctx context.Context, event *Event) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]Event, error)
	DeleteByUser(ctx context.Context, userID domain.UserID) error
	CountByUser(ctx context.Context, userID domain.UserID) (int, error)
}

// InMemoryStore keeps events in memory for tests/dev.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.UserID][]Event
}

// NewInMemory constructs an empty in-memory event store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.UserID][]Event)}
}

func (s *InMemoryStore) Insert(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.UserID] = append(s.events[event.UserID], *event)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[userID]
	out := make([]Event, len(events))
	copy(out, events)
	return out, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, userID)
	return nil
}

func (s *InMemoryStore) CountByUser(_ context.Context, userID domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[userID]), nil
}

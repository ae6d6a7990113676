package transparency

import (
	"context"
	"sync"

	domain "sentra/pkg/domain"
)

// Store defines the append-only persistence interface for the transparency
// log. There is deliberately no update or single-entry delete: entries leave
// the log only through the whole-user purge path.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]Entry, error)
	DeleteByUser(ctx context.Context, userID domain.UserID) error
}

// RetainedStore persists the deletion receipts that outlive a purge.
type RetainedStore interface {
	Append(ctx context.Context, record *RetainedRecord) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]RetainedRecord, error)
}

// InMemoryStore keeps transparency entries in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.UserID][]Entry
}

// NewInMemory constructs an empty in-memory transparency store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.UserID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.UserID] = append(s.entries[entry.UserID], *entry)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[userID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

// InMemoryRetainedStore keeps deletion receipts in memory for tests/dev.
type InMemoryRetainedStore struct {
	mu      sync.RWMutex
	records map[domain.UserID][]RetainedRecord
}

// NewInMemoryRetained constructs an empty in-memory retained store.
func NewInMemoryRetained() *InMemoryRetainedStore {
	return &InMemoryRetainedStore{records: make(map[domain.UserID][]RetainedRecord)}
}

func (s *InMemoryRetainedStore) Append(_ context.Context, record *RetainedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], *record)
	return nil
}

func (s *InMemoryRetainedStore) ListByUser(_ context.Context, userID domain.UserID) ([]RetainedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[userID]
	out := make([]RetainedRecord, len(records))
	copy(out, records)
	return out, nil
}

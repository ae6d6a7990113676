package prefs

import (
	"context"
	"sync"
	"time"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// Store defines the persistence interface for privacy preferences.
// Error Contract:
// - Get returns sentinel.ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Get(ctx context.Context, userID domain.UserID) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
	DeleteByUser(ctx context.Context, userID domain.UserID) error
	ListPurgeDue(ctx context.Context, now time.Time) ([]*Record, error)
}

// InMemoryStore stores preferences in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.UserID]*Record
}

// NewInMemory constructs an empty in-memory preferences store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.UserID]*Record)}
}

func (s *InMemoryStore) Get(_ context.Context, userID domain.UserID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRecord := *record
	return &copyRecord, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyRecord := *record
	s.records[record.UserID] = &copyRecord
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

func (s *InMemoryStore) ListPurgeDue(_ context.Context, now time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*Record
	for _, record := range s.records {
		if record.Status == StatusSoftDeleted && record.ScheduledPurgeAt != nil && !record.ScheduledPurgeAt.After(now) {
			copyRecord := *record
			due = append(due, &copyRecord)
		}
	}
	return due, nil
}

package transparency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

type failingStore struct{}

func (f *failingStore) Append(context.Context, *Entry) error { return errors.New("db down") }
func (f *failingStore) ListByUser(context.Context, domain.UserID) ([]Entry, error) {
	return nil, errors.New("db down")
}
func (f *failingStore) DeleteByUser(context.Context, domain.UserID) error {
	return errors.New("db down")
}

type RecorderSuite struct {
	suite.Suite

	ctx      context.Context
	store    *InMemoryStore
	recorder *Recorder
	userID   domain.UserID
	now      time.Time
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.userID = domain.UserID(uuid.New())
	s.recorder = NewRecorder(s.store, WithRecorderClock(func() time.Time { return s.now }))
}

func (s *RecorderSuite) TestRecordAppendsEntryWithHashes() {
	oldValue := map[string]any{"enabled": false}
	newValue := map[string]any{"enabled": true}

	entry, err := s.recorder.Record(s.ctx, s.userID, ActionAppEnabled, "app", "com.example.editor", oldValue, newValue)
	s.Require().NoError(err)
	s.False(entry.ID.IsNil())
	s.Equal(s.now, entry.Timestamp)
	s.Len(entry.OldValueHash, 64)
	s.Len(entry.NewValueHash, 64)
	s.NotEqual(entry.OldValueHash, entry.NewValueHash)

	entries, err := s.recorder.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(ActionAppEnabled, entries[0].Action)
}

func (s *RecorderSuite) TestRecordWithoutPreviousValue() {
	entry, err := s.recorder.Record(s.ctx, s.userID, ActionSignalToggled, "signal", "app_focus", nil, map[string]any{"enabled": false})
	s.Require().NoError(err)
	s.Empty(entry.OldValueHash)
	s.NotEmpty(entry.NewValueHash)
}

func (s *RecorderSuite) TestAppendFailureIsAuditUnavailable() {
	recorder := NewRecorder(&failingStore{})
	_, err := recorder.Record(s.ctx, s.userID, ActionDeleteRequested, "user", s.userID.String(), nil, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeAuditUnavailable))
}

func (s *RecorderSuite) TestEntriesOrderedOldestFirst() {
	for _, action := range []Action{ActionAppEnabled, ActionAppDisabled, ActionSignalToggled} {
		_, err := s.recorder.Record(s.ctx, s.userID, action, "app", "com.example.editor", nil, nil)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Minute)
	}

	entries, err := s.recorder.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(ActionAppEnabled, entries[0].Action)
	s.Equal(ActionSignalToggled, entries[2].Action)
	s.True(entries[0].Timestamp.Before(entries[2].Timestamp))
}

func (s *RecorderSuite) TestListRequiresUserID() {
	_, err := s.recorder.ListByUser(s.ctx, domain.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValueHashStableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"b": 1, "a": "x", "c": true}
	b := map[string]any{"c": true, "a": "x", "b": 1}

	ha, err := ValueHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hb, err := ValueHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected identical hashes for equivalent maps, got %s and %s", ha, hb)
	}
}

func TestValueHashDiffersOnValueChange(t *testing.T) {
	ha, err := ValueHash(map[string]any{"enabled": true})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hb, err := ValueHash(map[string]any{"enabled": false})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ha == hb {
		t.Fatal("expected different hashes for different values")
	}
}

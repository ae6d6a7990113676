package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
)

// PostgresStore persists telemetry events in PostgreSQL. Metadata is stored as
// JSONB so individual keys stay queryable for export tooling.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs an event store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}
	query := `
		INSERT INTO telemetry_events
			(id, user_id, app_id, signal_key, duration_ms, metadata, observed_at, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var duration sql.NullInt64
	if event.DurationMs != nil {
		duration = sql.NullInt64{Int64: *event.DurationMs, Valid: true}
	}
	_, err = s.execer().ExecContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.UserID),
		string(event.AppID),
		string(event.SignalKey),
		duration,
		metadata,
		event.ObservedAt,
		event.StoredAt,
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]Event, error) {
	query := `
		SELECT id, user_id, app_id, signal_key, duration_ms, metadata, observed_at, stored_at
		FROM telemetry_events
		WHERE user_id = $1
		ORDER BY observed_at ASC
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var id, uid uuid.UUID
		var appID, signalKey string
		var duration sql.NullInt64
		var metadata []byte
		if err := rows.Scan(&id, &uid, &appID, &signalKey, &duration,
			&metadata, &event.ObservedAt, &event.StoredAt); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		event.ID = domain.EventID(id)
		event.UserID = domain.UserID(uid)
		event.AppID = domain.AppID(appID)
		event.SignalKey = domain.SignalKey(signalKey)
		if duration.Valid {
			d := duration.Int64
			event.DurationMs = &d
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal event metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := s.execer().ExecContext(ctx,
		`DELETE FROM telemetry_events WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete telemetry events by user: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByUser(ctx context.Context, userID domain.UserID) (int, error) {
	var count int
	err := s.execer().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM telemetry_events WHERE user_id = $1`, uuid.UUID(userID)).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count telemetry events: %w", err)
	}
	return count, nil
}

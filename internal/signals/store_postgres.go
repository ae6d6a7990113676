package signals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// PostgresStore persists signal toggles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed toggle store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a toggle store bound to a transaction.
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

func (s *PostgresStore) Get(ctx context.Context, userID domain.UserID, key domain.SignalKey) (*Toggle, error) {
	query := `
		SELECT user_id, signal_key, enabled, sampling_rate, updated_at
		FROM signal_toggles
		WHERE user_id = $1 AND signal_key = $2
	`
	toggle, err := scanToggle(s.execer().QueryRowContext(ctx, query, uuid.UUID(userID), string(key)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get signal toggle: %w", err)
	}
	return toggle, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, toggle *Toggle) error {
	if toggle == nil {
		return fmt.Errorf("signal toggle is required")
	}
	query := `
		INSERT INTO signal_toggles (user_id, signal_key, enabled, sampling_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, signal_key) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			sampling_rate = EXCLUDED.sampling_rate,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(toggle.UserID),
		string(toggle.SignalKey),
		toggle.Enabled,
		toggle.SamplingRate,
		toggle.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert signal toggle: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]*Toggle, error) {
	query := `
		SELECT user_id, signal_key, enabled, sampling_rate, updated_at
		FROM signal_toggles
		WHERE user_id = $1
		ORDER BY signal_key
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list signal toggles: %w", err)
	}
	defer rows.Close()

	var toggles []*Toggle
	for rows.Next() {
		toggle, err := scanToggle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal toggle: %w", err)
		}
		toggles = append(toggles, toggle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal toggles: %w", err)
	}
	return toggles, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := s.execer().ExecContext(ctx,
		`DELETE FROM signal_toggles WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete signal toggles by user: %w", err)
	}
	return nil
}

type toggleRow interface {
	Scan(dest ...any) error
}

func scanToggle(row toggleRow) (*Toggle, error) {
	var toggle Toggle
	var userID uuid.UUID
	var key string
	if err := row.Scan(&userID, &key, &toggle.Enabled, &toggle.SamplingRate, &toggle.UpdatedAt); err != nil {
		return nil, err
	}
	toggle.UserID = domain.UserID(userID)
	toggle.SignalKey = domain.SignalKey(key)
	return &toggle, nil
}

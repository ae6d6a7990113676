package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// PostgresStore persists privacy preferences in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed preferences store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a preferences store bound to a transaction.
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

func (s *PostgresStore) Get(ctx context.Context, userID domain.UserID) (*Record, error) {
	query := `
		SELECT user_id, monitoring_enabled, consent_given, data_retention_days,
		       mfa_required, status, scheduled_purge_at, updated_at
		FROM user_privacy_preferences
		WHERE user_id = $1
	`
	record, err := scanRecord(s.execer().QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("preferences record is required")
	}
	query := `
		INSERT INTO user_privacy_preferences
			(user_id, monitoring_enabled, consent_given, data_retention_days,
			 mfa_required, status, scheduled_purge_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			monitoring_enabled = EXCLUDED.monitoring_enabled,
			consent_given = EXCLUDED.consent_given,
			data_retention_days = EXCLUDED.data_retention_days,
			mfa_required = EXCLUDED.mfa_required,
			status = EXCLUDED.status,
			scheduled_purge_at = EXCLUDED.scheduled_purge_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(record.UserID),
		record.MonitoringEnabled,
		record.ConsentGiven,
		record.DataRetentionDays,
		record.MFARequired,
		string(record.Status),
		record.ScheduledPurgeAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := s.execer().ExecContext(ctx,
		`DELETE FROM user_privacy_preferences WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete preferences by user: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPurgeDue(ctx context.Context, now time.Time) ([]*Record, error) {
	query := `
		SELECT user_id, monitoring_enabled, consent_given, data_retention_days,
		       mfa_required, status, scheduled_purge_at, updated_at
		FROM user_privacy_preferences
		WHERE status = $1 AND scheduled_purge_at <= $2
	`
	rows, err := s.execer().QueryContext(ctx, query, string(StatusSoftDeleted), now)
	if err != nil {
		return nil, fmt.Errorf("list purge due: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preferences: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return records, nil
}

type prefsRow interface {
	Scan(dest ...any) error
}

func scanRecord(row prefsRow) (*Record, error) {
	var record Record
	var userID uuid.UUID
	var status string
	var purgeAt sql.NullTime
	if err := row.Scan(&userID, &record.MonitoringEnabled, &record.ConsentGiven,
		&record.DataRetentionDays, &record.MFARequired, &status, &purgeAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	record.UserID = domain.UserID(userID)
	record.Status = Status(status)
	if purgeAt.Valid {
		record.ScheduledPurgeAt = &purgeAt.Time
	}
	return &record, nil
}

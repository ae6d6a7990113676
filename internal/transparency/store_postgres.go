package transparency

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
)

// PostgresStore persists transparency entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed transparency store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a transparency store bound to a transaction.
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

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("transparency entry is required")
	}
	query := `
		INSERT INTO transparency_log
			(id, user_id, action, resource, resource_id,
			 old_value_hash, new_value_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.UserID),
		string(entry.Action),
		entry.Resource,
		entry.ResourceID,
		entry.OldValueHash,
		entry.NewValueHash,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append transparency entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, resource, resource_id,
		       old_value_hash, new_value_hash, created_at
		FROM transparency_log
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list transparency entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var id, uid uuid.UUID
		var action string
		if err := rows.Scan(&id, &uid, &action, &entry.Resource, &entry.ResourceID,
			&entry.OldValueHash, &entry.NewValueHash, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transparency entry: %w", err)
		}
		entry.ID = domain.EntryID(id)
		entry.UserID = domain.UserID(uid)
		entry.Action = Action(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transparency entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := s.execer().ExecContext(ctx,
		`DELETE FROM transparency_log WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete transparency entries by user: %w", err)
	}
	return nil
}

// PostgresRetainedStore persists deletion receipts in PostgreSQL.
type PostgresRetainedStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgresRetained constructs a PostgreSQL-backed retained store.
func NewPostgresRetained(db *sql.DB) *PostgresRetainedStore {
	return &PostgresRetainedStore{db: db}
}

// NewPostgresRetainedTx constructs a retained store bound to a transaction.
func NewPostgresRetainedTx(tx *sql.Tx) *PostgresRetainedStore {
	return &PostgresRetainedStore{tx: tx}
}

func (s *PostgresRetainedStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresRetainedStore) Append(ctx context.Context, record *RetainedRecord) error {
	if record == nil {
		return fmt.Errorf("retained record is required")
	}
	query := `
		INSERT INTO retained_audit (id, user_id, mode, requested_at, purged_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.UserID),
		record.Mode,
		record.RequestedAt,
		record.PurgedAt,
	)
	if err != nil {
		return fmt.Errorf("append retained record: %w", err)
	}
	return nil
}

func (s *PostgresRetainedStore) ListByUser(ctx context.Context, userID domain.UserID) ([]RetainedRecord, error) {
	query := `
		SELECT id, user_id, mode, requested_at, purged_at
		FROM retained_audit
		WHERE user_id = $1
		ORDER BY purged_at ASC
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list retained records: %w", err)
	}
	defer rows.Close()

	var records []RetainedRecord
	for rows.Next() {
		var record RetainedRecord
		var id, uid uuid.UUID
		if err := rows.Scan(&id, &uid, &record.Mode, &record.RequestedAt, &record.PurgedAt); err != nil {
			return nil, fmt.Errorf("scan retained record: %w", err)
		}
		record.ID = domain.EntryID(id)
		record.UserID = domain.UserID(uid)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retained records: %w", err)
	}
	return records, nil
}

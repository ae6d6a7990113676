package allowlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "sentra/pkg/domain"
	"sentra/pkg/platform/sentinel"
)

// PostgresStore persists allowlist entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed allowlist store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs an allowlist store bound to a transaction.
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

func (s *PostgresStore) Get(ctx context.Context, userID domain.UserID, appID domain.AppID) (*Entry, error) {
	query := `
		SELECT user_id, app_id, app_name, enabled, scope, updated_at
		FROM app_allowlist_entries
		WHERE user_id = $1 AND app_id = $2
	`
	entry, err := scanEntry(s.execer().QueryRowContext(ctx, query, uuid.UUID(userID), string(appID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get allowlist entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("allowlist entry is required")
	}
	query := `
		INSERT INTO app_allowlist_entries (user_id, app_id, app_name, enabled, scope, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, app_id) DO UPDATE SET
			app_name = EXCLUDED.app_name,
			enabled = EXCLUDED.enabled,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(entry.UserID),
		string(entry.AppID),
		entry.AppName,
		entry.Enabled,
		string(entry.Scope),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert allowlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]*Entry, error) {
	query := `
		SELECT user_id, app_id, app_name, enabled, scope, updated_at
		FROM app_allowlist_entries
		WHERE user_id = $1
		ORDER BY app_id
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list allowlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allowlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowlist entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID domain.UserID) error {
	_, err := s.execer().ExecContext(ctx,
		`DELETE FROM app_allowlist_entries WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete allowlist entries by user: %w", err)
	}
	return nil
}

type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*Entry, error) {
	var entry Entry
	var userID uuid.UUID
	var appID, scope string
	if err := row.Scan(&userID, &appID, &entry.AppName, &entry.Enabled, &scope, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	entry.UserID = domain.UserID(userID)
	entry.AppID = domain.AppID(appID)
	entry.Scope = Scope(scope)
	return &entry, nil
}

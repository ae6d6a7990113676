package elevation

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

// PostgresStore persists elevated sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	query := `
		INSERT INTO elevated_sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(session.Token),
		uuid.UUID(session.UserID),
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create elevated session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token domain.SessionToken) (*Session, error) {
	query := `
		SELECT token, user_id, created_at, expires_at
		FROM elevated_sessions
		WHERE token = $1
	`
	var session Session
	var rawToken string
	var userID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, string(token)).
		Scan(&rawToken, &userID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find elevated session: %w", err)
	}
	session.Token = domain.SessionToken(rawToken)
	session.UserID = domain.UserID(userID)
	return &session, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM elevated_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows: %w", err)
	}
	return int(rows), nil
}

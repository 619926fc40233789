// Package session persists the CLI's session token per server address so a
// restart does not force a new login while the token is still valid. Only
// the token and the account email are kept; the master password never
// reaches disk.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
)

type Session struct {
	Server    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Repository interface {
	// Load returns (nil, nil) when nothing is stored for server.
	Load(ctx context.Context, server string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, server string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context, server string) (*Session, error) {
	s := &Session{Server: server}
	var expires int64
	err := r.db.QueryRowContext(ctx,
		`SELECT email, token, expires_at FROM sessions WHERE server = ?`, server).
		Scan(&s.Email, &s.Token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session[%s]: %w", server, err)
	}
	s.ExpiresAt = time.Unix(expires, 0)
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (server, email, token, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			email = excluded.email, token = excluded.token, expires_at = excluded.expires_at
	`, s.Server, s.Email, s.Token, s.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server); err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}

package users

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

const userColumns = `id, email, username, password_hash, salt, mfa_enabled,
		 mfa_secret_encrypted, mfa_pending_secret, created_at, updated_at, last_login_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, username, password_hash, salt)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, base64.StdEncoding.EncodeToString(user.Salt)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err, "users_email_key"):
			return nil, fmt.Errorf("email: %w", common.ErrAlreadyExists)
		case dbx.IsUniqueViolation(err, "users_username_key"):
			return nil, fmt.Errorf("username: %w", common.ErrAlreadyExists)
		case dbx.IsUniqueViolation(err, ""):
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user      models.User
		salt      string
		mfaSecret sql.NullString
		mfaPend   sql.NullString
		lastLogin sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &salt, &user.MfaEnabled,
		&mfaSecret, &mfaPend, &user.CreatedAt, &user.UpdatedAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Salt, err = base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("db error: corrupt salt: %w", err)
	}
	if mfaSecret.Valid {
		user.MfaSecretEncrypted = &mfaSecret.String
	}
	if mfaPend.Valid {
		user.MfaPendingSecret = &mfaPend.String
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return &user, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE users SET last_login_at = $2
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, at)
}

func (r *PostgresRepository) SetPendingMfa(ctx context.Context, id string, envelope string) error {
	query :=
		`UPDATE users SET mfa_pending_secret = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, envelope)
}

func (r *PostgresRepository) EnableMfa(ctx context.Context, id string, envelope string) error {
	query :=
		`UPDATE users SET mfa_enabled = TRUE, mfa_secret_encrypted = $2, mfa_pending_secret = NULL, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, envelope)
}

func (r *PostgresRepository) DisableMfa(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET mfa_enabled = FALSE, mfa_secret_encrypted = NULL, mfa_pending_secret = NULL, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Package services contains server-side business logic. UserService owns
// registration, login and vault key derivation; no other service derives
// keys or verifies passwords on its own.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/otp"
	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/server/services/internal/kdf"
)

var timeNow = time.Now

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pool        *kdf.Pool
	tokens      *auth.TokenIssuer
	audit       *AuditService
	logger      logging.Logger
	dummyHash   string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	tokens *auth.TokenIssuer, audit *AuditService, l logging.Logger) *UserService {

	params := kdf.Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2MemoryKiB,
		Threads: cfg.Argon2Threads,
	}

	return &UserService{
		db:          db,
		repomanager: m,
		pool:        kdf.NewPool(cfg.KdfWorkers, cfg.KdfQueue, params),
		tokens:      tokens,
		audit:       audit,
		logger:      l.With("module", "users"),
		dummyHash:   kdf.DummyHash(params),
	}
}

func (s *UserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {

	email = normalizeEmail(email)
	if err := validateRegistration(email, username, password); err != nil {
		return nil, err
	}

	hash, err := s.pool.HashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	salt, err := kdf.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("error generating salt: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		return s.audit.RecordTx(ctx, tx, user.ID, models.AuditRegister, "")
	})

	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the password and, when enabled, the TOTP code. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string, mfaCode *string) (*LoginResult, error) {

	email = normalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading user: %w", err)
		}
		// same cost as a real verification
		if _, err := s.pool.VerifyPassword(ctx, password, s.dummyHash); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, "", models.AuditLoginFailed, "unknown email")
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.pool.VerifyPassword(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info(ctx, "login rejected", "user_id", user.ID)
		s.audit.Record(ctx, user.ID, models.AuditLoginFailed, "wrong password")
		return nil, common.ErrInvalidCredentials
	}

	if user.MfaState() == models.MfaEnabled {
		if mfaCode == nil || *mfaCode == "" {
			return nil, common.ErrMfaRequired
		}
		if err := s.checkLoginCode(ctx, user, password, *mfaCode); err != nil {
			if errors.Is(err, common.ErrInvalidMfaCode) {
				s.logger.Info(ctx, "login mfa code rejected", "user_id", user.ID)
				s.audit.Record(ctx, user.ID, models.AuditLoginMfaFailed, "")
			}
			return nil, err
		}
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	now := timeNow()
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn(ctx, "last login update failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	s.audit.Record(ctx, user.ID, models.AuditLoginSuccess, "")
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) checkLoginCode(ctx context.Context, user *models.User, password, code string) error {
	key, err := s.deriveKey(ctx, user, password)
	if err != nil {
		return err
	}
	defer key.Destroy()

	secret, err := s.openMfaSecret(ctx, user, user.MfaSecretEncrypted, key)
	if err != nil {
		return err
	}
	if !otp.VerifyCode(secret, code) {
		return common.ErrInvalidMfaCode
	}
	return nil
}

// openMfaSecret opens a stored TOTP secret envelope. Any failure here means
// the stored record does not match the verified password and is treated as
// an integrity incident.
func (s *UserService) openMfaSecret(ctx context.Context, user *models.User, envelope *string, key *VaultKey) (string, error) {
	if envelope == nil {
		s.logger.Error(ctx, "mfa secret missing", "user_id", user.ID)
		return "", common.ErrMfaVerificationFailed
	}
	secret, err := cryptox.OpenString(*envelope, key.Bytes())
	if err != nil {
		s.logger.Error(ctx, "mfa secret failed to open", "user_id", user.ID, "error", err)
		return "", common.ErrMfaVerificationFailed
	}
	return secret, nil
}

// DeriveVaultKey verifies the master password and derives the user's vault
// key. Nothing is cached; the caller must Destroy the key.
func (s *UserService) DeriveVaultKey(ctx context.Context, userID, masterPassword string) (*VaultKey, error) {
	if masterPassword == "" {
		return nil, common.ErrMasterPasswordRequired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return s.unlock(ctx, user, masterPassword)
}

// unlock verifies password against user and derives the vault key.
func (s *UserService) unlock(ctx context.Context, user *models.User, password string) (*VaultKey, error) {
	ok, err := s.pool.VerifyPassword(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info(ctx, "master password rejected", "user_id", user.ID)
		return nil, common.ErrInvalidMasterPassword
	}
	return s.deriveKey(ctx, user, password)
}

func (s *UserService) deriveKey(ctx context.Context, user *models.User, password string) (*VaultKey, error) {
	raw, err := s.pool.DeriveKey(ctx, password, user.Salt)
	if err != nil {
		return nil, err
	}
	return newVaultKey(raw), nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func (s *UserService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	return s.Profile(ctx, userID)
}

package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/otp"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
)

// MfaSetup is what the user needs to enroll an authenticator app.
type MfaSetup struct {
	Secret          string
	ProvisioningURI string
	QRCodePNG       []byte
}

// MfaService drives the TOTP enrollment state machine:
// disabled -> pending -> enabled -> disabled.
// Secrets are always sealed under the user's vault key.
type MfaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *UserService
	audit       *AuditService
	issuer      string
	logger      logging.Logger
}

func NewMfaService(db *sql.DB, m repomanager.RepositoryManager, users *UserService,
	audit *AuditService, cfg *config.Config, l logging.Logger) *MfaService {
	return &MfaService{
		db:          db,
		repomanager: m,
		users:       users,
		audit:       audit,
		issuer:      cfg.MfaIssuer,
		logger:      l.With("module", "mfa"),
	}
}

// Setup starts (or restarts) enrollment with a fresh secret.
func (s *MfaService) Setup(ctx context.Context, userID, masterPassword string) (*MfaSetup, error) {

	user, err := s.users.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MfaState() == models.MfaEnabled {
		return nil, common.ErrMfaAlreadyEnabled
	}

	key, err := s.users.unlock(ctx, user, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	secret, err := otp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("error generating mfa secret: %w", err)
	}

	envelope, err := cryptox.SealString(secret, key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("error sealing mfa secret: %w", err)
	}

	uri := otp.ProvisioningURI(secret, user.Email, s.issuer)
	png, err := otp.RenderEnrollmentImage(uri)
	if err != nil {
		return nil, fmt.Errorf("error rendering qr code: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetPendingMfa(ctx, user.ID, envelope); err != nil {
		return nil, fmt.Errorf("error storing pending mfa secret: %w", err)
	}

	s.logger.Info(ctx, "mfa enrollment started", "user_id", user.ID)
	return &MfaSetup{Secret: secret, ProvisioningURI: uri, QRCodePNG: png}, nil
}

// Enable completes enrollment once the user proves possession of the secret.
func (s *MfaService) Enable(ctx context.Context, userID, masterPassword, code string) error {

	user, err := s.users.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	switch user.MfaState() {
	case models.MfaEnabled:
		return common.ErrMfaAlreadyEnabled
	case models.MfaDisabled:
		return common.ErrMfaNotPending
	}

	key, err := s.users.unlock(ctx, user, masterPassword)
	if err != nil {
		return err
	}
	defer key.Destroy()

	secret, err := s.users.openMfaSecret(ctx, user, user.MfaPendingSecret, key)
	if err != nil {
		return err
	}
	if !otp.VerifyCode(secret, code) {
		s.logger.Info(ctx, "mfa enable code rejected", "user_id", user.ID)
		return common.ErrInvalidMfaCode
	}

	envelope, err := cryptox.SealString(secret, key.Bytes())
	if err != nil {
		return fmt.Errorf("error sealing mfa secret: %w", err)
	}
	if err := s.repomanager.Users(s.db).EnableMfa(ctx, user.ID, envelope); err != nil {
		return fmt.Errorf("error enabling mfa: %w", err)
	}

	s.audit.Record(ctx, user.ID, models.AuditMfaEnabled, "")
	s.logger.Info(ctx, "mfa enabled", "user_id", user.ID)
	return nil
}

// Disable turns MFA off. A current code is required.
func (s *MfaService) Disable(ctx context.Context, userID, masterPassword, code string) error {

	user, err := s.users.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.MfaState() != models.MfaEnabled {
		return common.ErrMfaNotEnabled
	}

	key, err := s.users.unlock(ctx, user, masterPassword)
	if err != nil {
		return err
	}
	defer key.Destroy()

	secret, err := s.users.openMfaSecret(ctx, user, user.MfaSecretEncrypted, key)
	if err != nil {
		return err
	}
	if !otp.VerifyCode(secret, code) {
		s.logger.Info(ctx, "mfa disable code rejected", "user_id", user.ID)
		return common.ErrInvalidMfaCode
	}

	if err := s.repomanager.Users(s.db).DisableMfa(ctx, user.ID); err != nil {
		return fmt.Errorf("error disabling mfa: %w", err)
	}

	s.audit.Record(ctx, user.ID, models.AuditMfaDisabled, "")
	s.logger.Info(ctx, "mfa disabled", "user_id", user.ID)
	return nil
}

func (s *MfaService) Status(ctx context.Context, userID string) (models.MfaState, error) {
	user, err := s.users.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.MfaState(), nil
}

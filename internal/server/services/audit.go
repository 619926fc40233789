package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/netx"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// AuditService records security-relevant events and lists a user's recent
// activity.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAuditService(db *sql.DB, repomanager repomanager.RepositoryManager, l logging.Logger) *AuditService {
	return &AuditService{
		db:          db,
		repomanager: repomanager,
		logger:      l.With("module", "audit"),
	}
}

func (s *AuditService) event(ctx context.Context, userID, action, details string) *models.AuditEvent {
	e := &models.AuditEvent{
		Action:    action,
		Details:   details,
		IPAddress: netx.ClientIP(ctx),
	}
	if userID != "" {
		e.UserID = &userID
	}
	return e
}

// Record writes an event outside any transaction. A failed write is logged
// and otherwise ignored; the audited operation has already happened.
func (s *AuditService) Record(ctx context.Context, userID, action, details string) {
	if err := s.RecordTx(ctx, s.db, userID, action, details); err != nil {
		s.logger.Warn(ctx, "audit write failed", "action", action, "error", err)
	}
}

// RecordTx writes an event on db, typically a transaction the event must
// commit or roll back with.
func (s *AuditService) RecordTx(ctx context.Context, db dbx.DBTX, userID, action, details string) error {
	return s.repomanager.Audit(db).Log(ctx, s.event(ctx, userID, action, details))
}

// Recent returns the user's latest events, newest first.
func (s *AuditService) Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEvent, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	return s.repomanager.Audit(s.db).ListByUser(ctx, userID, limit)
}

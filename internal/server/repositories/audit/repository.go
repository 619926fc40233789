package audit

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

type Repository interface {
	Log(ctx context.Context, event *models.AuditEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditEvent, error)
}

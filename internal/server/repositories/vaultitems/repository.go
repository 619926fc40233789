package vaultitems

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

// Repository stores vault items. Every lookup is scoped to the owner; an
// item that belongs to someone else is reported as not found.
type Repository interface {
	Create(ctx context.Context, item *models.VaultItem) error
	Get(ctx context.Context, userID, id string) (*models.VaultItem, error)
	ListByUser(ctx context.Context, userID string) ([]*models.VaultItem, error)
	Update(ctx context.Context, item *models.VaultItem) error
	Delete(ctx context.Context, userID, id string) error
}

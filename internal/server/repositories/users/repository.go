package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetPendingMfa(ctx context.Context, id string, envelope string) error
	EnableMfa(ctx context.Context, id string, envelope string) error
	DisableMfa(ctx context.Context, id string) error
}

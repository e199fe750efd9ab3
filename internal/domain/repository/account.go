package repository

import (
	"context"

	"github.com/polkiloo/creditscore/internal/domain/model"
)

// AccountRepository persists API credentials of principals.
type AccountRepository interface {
	Create(ctx context.Context, p model.Principal, passwordHash string) (*model.Account, error)
	GetByPrincipal(ctx context.Context, p model.Principal) (*model.Account, error)
}

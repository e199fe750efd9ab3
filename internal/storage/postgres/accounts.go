package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
)

type accountRepository struct {
	storage *Storage
}

func (r *accountRepository) Create(ctx context.Context, p model.Principal, passwordHash string) (*model.Account, error) {
	const query = `INSERT INTO accounts (principal, password_hash) VALUES ($1, $2) RETURNING created_at`
	acc := model.Account{Principal: p, PasswordHash: passwordHash}
	err := r.storage.pool.QueryRow(ctx, query, p.String(), passwordHash).Scan(&acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepository) GetByPrincipal(ctx context.Context, p model.Principal) (*model.Account, error) {
	const query = `SELECT principal, password_hash, created_at FROM accounts WHERE principal=$1`
	var (
		acc       model.Account
		principal string
	)
	err := r.storage.pool.QueryRow(ctx, query, p.String()).Scan(&principal, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	acc.Principal = model.Principal(principal)
	return &acc, nil
}

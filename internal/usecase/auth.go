package usecase

import (
	"context"
	"errors"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
	pkgAuth "github.com/polkiloo/creditscore/internal/pkg/auth"
)

// AuthUseCase manages principal accounts and the tokens identifying callers.
type AuthUseCase struct {
	accounts repository.AccountRepository
	hasher   pkgAuth.PasswordHasher
	tokens   pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(accounts repository.AccountRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{accounts: accounts, hasher: hasher, tokens: strategy}
}

// Register creates credentials for principal and returns an auth token.
func (u *AuthUseCase) Register(ctx context.Context, principal, password string) (*model.Account, string, error) {
	p := model.ParsePrincipal(principal)
	if p == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if !p.Valid() {
		return nil, "", domainErrors.ErrInvalidPrincipal
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrPassphraseTooLong) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	acc, err := u.accounts.Create(ctx, p, hash)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(acc.Principal.String())
	if err != nil {
		return nil, "", err
	}

	return acc, token, nil
}

// Authenticate validates credentials and returns an auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, principal, password string) (*model.Account, string, error) {
	p := model.ParsePrincipal(principal)
	if p == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	acc, err := u.accounts.GetByPrincipal(ctx, p)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(acc.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(acc.Principal.String())
	if err != nil {
		return nil, "", err
	}

	return acc, token, nil
}

// ParseToken extracts the calling principal from token.
func (u *AuthUseCase) ParseToken(token string) (model.Principal, error) {
	if token == "" {
		return "", pkgAuth.ErrInvalidToken
	}
	subject, err := u.tokens.ParseToken(token)
	if err != nil {
		return "", err
	}
	return model.Principal(subject), nil
}

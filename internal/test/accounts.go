package test

import (
	"context"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

// AccountRepositoryStub stores accounts in-memory for tests.
type AccountRepositoryStub struct {
	Accounts map[model.Principal]*model.Account
	Err      error
}

// NewAccountRepositoryStub constructs stub repository with initialized map.
func NewAccountRepositoryStub() *AccountRepositoryStub {
	return &AccountRepositoryStub{Accounts: make(map[model.Principal]*model.Account)}
}

// Create registers account unless already exists or stub has explicit error.
func (s *AccountRepositoryStub) Create(ctx context.Context, p model.Principal, passwordHash string) (*model.Account, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Accounts == nil {
		s.Accounts = make(map[model.Principal]*model.Account)
	}
	if _, exists := s.Accounts[p]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	acc := &model.Account{Principal: p, PasswordHash: passwordHash}
	s.Accounts[p] = acc
	return acc, nil
}

// GetByPrincipal fetches account or returns not found.
func (s *AccountRepositoryStub) GetByPrincipal(ctx context.Context, p model.Principal) (*model.Account, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if acc, ok := s.Accounts[p]; ok {
		return acc, nil
	}
	return nil, domainErrors.ErrNotFound
}

var _ repository.AccountRepository = (*AccountRepositoryStub)(nil)

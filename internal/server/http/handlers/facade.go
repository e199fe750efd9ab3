package handlers

import (
	"context"

	"github.com/polkiloo/creditscore/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, principal, password string) (string, error)
	Authenticate(ctx context.Context, principal, password string) (string, error)
	ParseToken(token string) (model.Principal, error)
}

// ScoreFacade exposes credit record operations.
type ScoreFacade interface {
	InitializeUserScore(ctx context.Context, user model.Principal) error
	UpdateCreditScore(ctx context.Context, caller, user model.Principal) (uint32, error)
	CreditScore(ctx context.Context, user model.Principal) (*model.CreditRecord, error)
	CalculateCreditScore(ctx context.Context, user model.Principal) (model.ScorePreview, error)
	Stats(ctx context.Context) (model.LedgerStats, error)
	Height(ctx context.Context) (uint64, error)
}

// LoanFacade exposes the loan lifecycle.
type LoanFacade interface {
	RecordLoan(ctx context.Context, caller model.Principal, req model.LoanRequest) (uint64, error)
	RecordLoanRepayment(ctx context.Context, caller model.Principal, id, amount uint64) error
	RecordLoanDefault(ctx context.Context, caller model.Principal, id uint64) error
	LoanRecord(ctx context.Context, id uint64) (*model.LoanRecord, error)
}

// ReporterFacade manages authorized reporters.
type ReporterFacade interface {
	AddAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) error
	RemoveAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) error
	IsAuthorizedReporter(ctx context.Context, reporter model.Principal) (bool, error)
}

// CreditFacade aggregates the full set of operations used across handlers.
type CreditFacade interface {
	AuthFacade
	ScoreFacade
	LoanFacade
	ReporterFacade
}

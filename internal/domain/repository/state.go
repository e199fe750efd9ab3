package repository

import (
	"context"

	"github.com/polkiloo/creditscore/internal/domain/model"
)

// State is the keyed view of ledger data available inside one invocation.
// Lookups report absence through the found flag rather than an error.
type State interface {
	Meta(ctx context.Context) (model.LedgerMeta, bool, error)
	PutMeta(ctx context.Context, meta model.LedgerMeta) error

	CreditRecord(ctx context.Context, p model.Principal) (*model.CreditRecord, bool, error)
	PutCreditRecord(ctx context.Context, rec *model.CreditRecord) error
	// StaleCreditRecords lists records last updated before the given height.
	StaleCreditRecords(ctx context.Context, before uint64, limit int) ([]model.CreditRecord, error)

	Loan(ctx context.Context, id uint64) (*model.LoanRecord, bool, error)
	PutLoan(ctx context.Context, loan *model.LoanRecord) error

	IsAuthorized(ctx context.Context, p model.Principal) (bool, error)
	SetAuthorized(ctx context.Context, p model.Principal, authorized bool) error
}

// Store runs functions against State. Atomically commits every write made by
// fn or none of them, and serializes conflicting invocations.
type Store interface {
	Atomically(ctx context.Context, fn func(State) error) error
	View(ctx context.Context, fn func(State) error) error
}

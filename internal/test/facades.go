package test

import (
	"context"
	"sync"

	"github.com/polkiloo/creditscore/internal/domain/model"
)

// ScoreFacadeStub provides controllable behaviour for credit endpoints.
type ScoreFacadeStub struct {
	InitFn    func(context.Context, model.Principal) error
	UpdateFn  func(context.Context, model.Principal, model.Principal) (uint32, error)
	RecordFn  func(context.Context, model.Principal) (*model.CreditRecord, error)
	PreviewFn func(context.Context, model.Principal) (model.ScorePreview, error)
	StatsFn   func(context.Context) (model.LedgerStats, error)
	HeightFn  func(context.Context) (uint64, error)
}

// InitializeUserScore delegates to the override or succeeds.
func (s ScoreFacadeStub) InitializeUserScore(ctx context.Context, user model.Principal) error {
	if s.InitFn != nil {
		return s.InitFn(ctx, user)
	}
	return nil
}

// UpdateCreditScore delegates to the override or returns the default score.
func (s ScoreFacadeStub) UpdateCreditScore(ctx context.Context, caller, user model.Principal) (uint32, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, caller, user)
	}
	return model.DefaultScore, nil
}

// CreditScore returns a fresh record for user.
func (s ScoreFacadeStub) CreditScore(ctx context.Context, user model.Principal) (*model.CreditRecord, error) {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, user)
	}
	return model.NewCreditRecord(user, 1), nil
}

// CalculateCreditScore returns the default preview.
func (s ScoreFacadeStub) CalculateCreditScore(ctx context.Context, user model.Principal) (model.ScorePreview, error) {
	if s.PreviewFn != nil {
		return s.PreviewFn(ctx, user)
	}
	return model.ScorePreview{Principal: user, Score: model.DefaultScore, Source: model.ScoreSourceDefault}, nil
}

// Stats returns preconfigured counters.
func (s ScoreFacadeStub) Stats(ctx context.Context) (model.LedgerStats, error) {
	if s.StatsFn != nil {
		return s.StatsFn(ctx)
	}
	return model.LedgerStats{TotalUsers: 2, LoanCounter: 3}, nil
}

// Height returns a fixed height.
func (s ScoreFacadeStub) Height(ctx context.Context) (uint64, error) {
	if s.HeightFn != nil {
		return s.HeightFn(ctx)
	}
	return 42, nil
}

// LoanFacadeStub simulates loan lifecycle operations.
type LoanFacadeStub struct {
	RecordFn    func(context.Context, model.Principal, model.LoanRequest) (uint64, error)
	RepaymentFn func(context.Context, model.Principal, uint64, uint64) error
	DefaultFn   func(context.Context, model.Principal, uint64) error
	LoanFn      func(context.Context, uint64) (*model.LoanRecord, error)
}

// RecordLoan returns loan id 1 unless overridden.
func (s LoanFacadeStub) RecordLoan(ctx context.Context, caller model.Principal, req model.LoanRequest) (uint64, error) {
	if s.RecordFn != nil {
		return s.RecordFn(ctx, caller, req)
	}
	return 1, nil
}

// RecordLoanRepayment executes configured handler.
func (s LoanFacadeStub) RecordLoanRepayment(ctx context.Context, caller model.Principal, id, amount uint64) error {
	if s.RepaymentFn != nil {
		return s.RepaymentFn(ctx, caller, id, amount)
	}
	return nil
}

// RecordLoanDefault executes configured handler.
func (s LoanFacadeStub) RecordLoanDefault(ctx context.Context, caller model.Principal, id uint64) error {
	if s.DefaultFn != nil {
		return s.DefaultFn(ctx, caller, id)
	}
	return nil
}

// LoanRecord returns a fixed loan.
func (s LoanFacadeStub) LoanRecord(ctx context.Context, id uint64) (*model.LoanRecord, error) {
	if s.LoanFn != nil {
		return s.LoanFn(ctx, id)
	}
	return &model.LoanRecord{ID: id, Borrower: "alice", Lender: "bob", Amount: 1000, InterestRate: 5, DueDate: 100}, nil
}

// ReporterFacadeStub simulates the authorization registry.
type ReporterFacadeStub struct {
	AddFn    func(context.Context, model.Principal, model.Principal) error
	RemoveFn func(context.Context, model.Principal, model.Principal) error
	IsFn     func(context.Context, model.Principal) (bool, error)
}

// AddAuthorizedReporter executes configured handler.
func (s ReporterFacadeStub) AddAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) error {
	if s.AddFn != nil {
		return s.AddFn(ctx, caller, reporter)
	}
	return nil
}

// RemoveAuthorizedReporter executes configured handler.
func (s ReporterFacadeStub) RemoveAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) error {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, caller, reporter)
	}
	return nil
}

// IsAuthorizedReporter reports true unless overridden.
func (s ReporterFacadeStub) IsAuthorizedReporter(ctx context.Context, reporter model.Principal) (bool, error) {
	if s.IsFn != nil {
		return s.IsFn(ctx, reporter)
	}
	return true, nil
}

// RefreshCall stores information about UpdateCreditScore invocations.
type RefreshCall struct {
	Caller model.Principal
	User   model.Principal
}

// WorkerFacadeStub mimics worker interactions with the credit facade.
type WorkerFacadeStub struct {
	Batches   [][]model.CreditRecord
	StaleFn   func(context.Context, uint64, int) ([]model.CreditRecord, error)
	UpdateFn  func(context.Context, model.Principal, model.Principal) (uint32, error)
	Refreshes []RefreshCall
	mu        sync.Mutex
	calls     int
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// StaleCreditRecords returns batches from configured queue.
func (s *WorkerFacadeStub) StaleCreditRecords(ctx context.Context, age uint64, limit int) ([]model.CreditRecord, error) {
	if s.StaleFn != nil {
		return s.StaleFn(ctx, age, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= len(s.Batches) {
		return s.Batches[s.calls-1], nil
	}
	return nil, nil
}

// UpdateCreditScore records refresh requests.
func (s *WorkerFacadeStub) UpdateCreditScore(ctx context.Context, caller, user model.Principal) (uint32, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, caller, user)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Refreshes = append(s.Refreshes, RefreshCall{Caller: caller, User: user})
	return model.DefaultScore, nil
}

package app

import (
	"context"
	"time"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/metrics"
	"github.com/polkiloo/creditscore/internal/usecase"
)

// CreditFacade is the public operation surface of the ledger, shared by the
// HTTP handlers and the score refresher.
type CreditFacade struct {
	auth     *usecase.AuthUseCase
	registry *usecase.AuthorizationRegistry
	scores   *usecase.ScoreEngine
	ledger   *usecase.LoanLedger
	heights  usecase.HeightSource
	metrics  *metrics.Metrics
}

func NewCreditFacade(
	auth *usecase.AuthUseCase,
	registry *usecase.AuthorizationRegistry,
	scores *usecase.ScoreEngine,
	ledger *usecase.LoanLedger,
	heights usecase.HeightSource,
	m *metrics.Metrics,
) *CreditFacade {
	return &CreditFacade{auth: auth, registry: registry, scores: scores, ledger: ledger, heights: heights, metrics: m}
}

func (f *CreditFacade) Register(ctx context.Context, principal, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, principal, password)
	return token, err
}

func (f *CreditFacade) Authenticate(ctx context.Context, principal, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, principal, password)
	return token, err
}

func (f *CreditFacade) ParseToken(token string) (model.Principal, error) {
	return f.auth.ParseToken(token)
}

// Deploy fixes the ledger owner.
func (f *CreditFacade) Deploy(ctx context.Context, owner model.Principal) error {
	return f.registry.Deploy(ctx, owner)
}

func (f *CreditFacade) AddAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) (err error) {
	defer f.observe("add_authorized_reporter", time.Now(), &err)
	return f.registry.AddReporter(ctx, caller, reporter)
}

func (f *CreditFacade) RemoveAuthorizedReporter(ctx context.Context, caller, reporter model.Principal) (err error) {
	defer f.observe("remove_authorized_reporter", time.Now(), &err)
	return f.registry.RemoveReporter(ctx, caller, reporter)
}

func (f *CreditFacade) IsAuthorizedReporter(ctx context.Context, reporter model.Principal) (bool, error) {
	return f.registry.IsAuthorized(ctx, reporter)
}

func (f *CreditFacade) InitializeUserScore(ctx context.Context, user model.Principal) (err error) {
	defer f.observe("initialize_user_score", time.Now(), &err)
	return f.scores.InitializeUserScore(ctx, user)
}

func (f *CreditFacade) RecordLoan(ctx context.Context, caller model.Principal, req model.LoanRequest) (id uint64, err error) {
	defer f.observe("record_loan", time.Now(), &err)
	id, err = f.ledger.RecordLoan(ctx, caller, req)
	if err == nil {
		f.metrics.ObserveLoanTransition(metrics.LoanOpened)
	}
	return id, err
}

func (f *CreditFacade) RecordLoanRepayment(ctx context.Context, caller model.Principal, id, amount uint64) (err error) {
	defer f.observe("record_loan_repayment", time.Now(), &err)
	if err = f.ledger.RecordRepayment(ctx, caller, id, amount); err == nil {
		f.metrics.ObserveLoanTransition(metrics.LoanRepaid)
	}
	return err
}

func (f *CreditFacade) RecordLoanDefault(ctx context.Context, caller model.Principal, id uint64) (err error) {
	defer f.observe("record_loan_default", time.Now(), &err)
	if err = f.ledger.RecordDefault(ctx, caller, id); err == nil {
		f.metrics.ObserveLoanTransition(metrics.LoanDefaulted)
	}
	return err
}

// UpdateCreditScore forces a recompute of the score of user.
func (f *CreditFacade) UpdateCreditScore(ctx context.Context, caller, user model.Principal) (score uint32, err error) {
	defer f.observe("update_credit_score", time.Now(), &err)
	return f.ledger.UpdateScore(ctx, caller, user)
}

func (f *CreditFacade) CreditScore(ctx context.Context, user model.Principal) (*model.CreditRecord, error) {
	return f.scores.CreditRecord(ctx, user)
}

func (f *CreditFacade) CalculateCreditScore(ctx context.Context, user model.Principal) (model.ScorePreview, error) {
	return f.scores.Preview(ctx, user)
}

func (f *CreditFacade) LoanRecord(ctx context.Context, id uint64) (*model.LoanRecord, error) {
	return f.ledger.Loan(ctx, id)
}

func (f *CreditFacade) Stats(ctx context.Context) (model.LedgerStats, error) {
	return f.scores.Stats(ctx)
}

func (f *CreditFacade) TotalUsers(ctx context.Context) (uint64, error) {
	stats, err := f.scores.Stats(ctx)
	return stats.TotalUsers, err
}

func (f *CreditFacade) LoanCounter(ctx context.Context) (uint64, error) {
	stats, err := f.scores.Stats(ctx)
	return stats.LoanCounter, err
}

func (f *CreditFacade) Height(ctx context.Context) (uint64, error) {
	h, err := f.heights.Current(ctx)
	if err == nil {
		f.metrics.SetHeight(h)
	}
	return h, err
}

func (f *CreditFacade) StaleCreditRecords(ctx context.Context, age uint64, limit int) ([]model.CreditRecord, error) {
	return f.ledger.StaleRecords(ctx, age, limit)
}

func (f *CreditFacade) observe(op string, start time.Time, err *error) {
	f.metrics.ObserveOperation(op, *err, time.Since(start))
}

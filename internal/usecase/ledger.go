package usecase

import (
	"context"
	"fmt"
	"math/bits"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

// ScoreObserver receives every score the ledger commits.
type ScoreObserver interface {
	ObserveScore(score uint32)
}

// LoanLedger drives the loan lifecycle: created, then repaid or defaulted.
type LoanLedger struct {
	store    repository.Store
	scores   *ScoreEngine
	heights  HeightSource
	observer ScoreObserver
}

// NewLoanLedger constructs LoanLedger. observer may be nil.
func NewLoanLedger(store repository.Store, scores *ScoreEngine, heights HeightSource, observer ScoreObserver) *LoanLedger {
	return &LoanLedger{store: store, scores: scores, heights: heights, observer: observer}
}

// RecordLoan registers a new loan and returns its identifier. Only the
// borrower or the lender may record it.
func (l *LoanLedger) RecordLoan(ctx context.Context, caller model.Principal, req model.LoanRequest) (uint64, error) {
	if req.Amount == 0 {
		return 0, domainErrors.ErrInvalidAmount
	}
	if caller != req.Borrower && caller != req.Lender {
		return 0, domainErrors.ErrNotAuthorized
	}
	if !req.Borrower.Valid() || !req.Lender.Valid() {
		return 0, domainErrors.ErrInvalidPrincipal
	}

	now, err := l.heights.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("current height: %w", err)
	}
	dueDate, carry := bits.Add64(now, req.Duration, 0)
	if carry != 0 {
		return 0, fmt.Errorf("due date overflows: %w", domainErrors.ErrInvalidAmount)
	}

	var (
		id    uint64
		score uint32
	)
	err = l.store.Atomically(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		if err != nil {
			return err
		}

		_, exists, err := st.CreditRecord(ctx, req.Borrower)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := l.scores.initialize(ctx, st, &meta, req.Borrower, now); err != nil {
				return err
			}
		}

		id = meta.LoanCounter + 1
		loan := &model.LoanRecord{
			ID:           id,
			Borrower:     req.Borrower,
			Lender:       req.Lender,
			Amount:       req.Amount,
			InterestRate: req.InterestRate,
			DueDate:      dueDate,
			CreatedAt:    now,
		}
		if err := st.PutLoan(ctx, loan); err != nil {
			return err
		}
		if score, err = l.scores.apply(ctx, st, req.Borrower, eventLoanOpened, req.Amount, now); err != nil {
			return err
		}

		meta.LoanCounter = id
		return st.PutMeta(ctx, meta)
	})
	if err != nil {
		return 0, err
	}
	l.observe(score)
	return id, nil
}

// RecordRepayment marks loan id as repaid. The borrower or any authorized
// reporter may report it. Repaying after the due date also counts as a default
// in the borrower's history.
func (l *LoanLedger) RecordRepayment(ctx context.Context, caller model.Principal, id, amount uint64) error {
	now, err := l.heights.Current(ctx)
	if err != nil {
		return fmt.Errorf("current height: %w", err)
	}

	var score uint32
	err = l.store.Atomically(ctx, func(st repository.State) error {
		loan, err := l.loadLoan(ctx, st, id)
		if err != nil {
			return err
		}
		if loan.Settled() {
			return settledError(loan)
		}
		if amount == 0 {
			return domainErrors.ErrInvalidAmount
		}
		if caller != loan.Borrower {
			authorized, err := st.IsAuthorized(ctx, caller)
			if err != nil {
				return err
			}
			if !authorized {
				return domainErrors.ErrNotAuthorized
			}
		}

		loan.Repaid = true
		loan.RepaidAmount = amount
		if err := st.PutLoan(ctx, loan); err != nil {
			return err
		}

		event := eventLoanRepaid
		if loan.Overdue(now) {
			event = eventLoanRepaidLate
		}
		score, err = l.scores.apply(ctx, st, loan.Borrower, event, amount, now)
		return err
	})
	if err != nil {
		return err
	}
	l.observe(score)
	return nil
}

// RecordDefault reports that loan id was not repaid by its due date. Only
// authorized reporters may do so, and only once the loan is overdue.
func (l *LoanLedger) RecordDefault(ctx context.Context, caller model.Principal, id uint64) error {
	now, err := l.heights.Current(ctx)
	if err != nil {
		return fmt.Errorf("current height: %w", err)
	}

	var score uint32
	err = l.store.Atomically(ctx, func(st repository.State) error {
		loan, err := l.loadLoan(ctx, st, id)
		if err != nil {
			return err
		}
		authorized, err := st.IsAuthorized(ctx, caller)
		if err != nil {
			return err
		}
		if !authorized {
			return domainErrors.ErrNotAuthorized
		}
		if loan.Settled() {
			return settledError(loan)
		}
		if !loan.Overdue(now) {
			return domainErrors.ErrPaymentOverdue
		}

		loan.Defaulted = true
		if err := st.PutLoan(ctx, loan); err != nil {
			return err
		}
		score, err = l.scores.apply(ctx, st, loan.Borrower, eventLoanDefaulted, 0, now)
		return err
	})
	if err != nil {
		return err
	}
	l.observe(score)
	return nil
}

// UpdateScore forces a recompute of the score of user. Any caller may do so.
func (l *LoanLedger) UpdateScore(ctx context.Context, caller model.Principal, user model.Principal) (uint32, error) {
	now, err := l.heights.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("current height: %w", err)
	}

	var score uint32
	err = l.store.Atomically(ctx, func(st repository.State) error {
		var err error
		score, err = l.scores.Recompute(ctx, st, user, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.observe(score)
	return score, nil
}

// Loan returns loan id.
func (l *LoanLedger) Loan(ctx context.Context, id uint64) (*model.LoanRecord, error) {
	var loan *model.LoanRecord
	err := l.store.View(ctx, func(st repository.State) error {
		var err error
		loan, err = l.loadLoan(ctx, st, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// StaleRecords lists credit records not updated within age blocks of the
// current height.
func (l *LoanLedger) StaleRecords(ctx context.Context, age uint64, limit int) ([]model.CreditRecord, error) {
	now, err := l.heights.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("current height: %w", err)
	}
	if now <= age {
		return nil, nil
	}

	var records []model.CreditRecord
	err = l.store.View(ctx, func(st repository.State) error {
		var err error
		records, err = st.StaleCreditRecords(ctx, now-age, limit)
		return err
	})
	return records, err
}

func (l *LoanLedger) observe(score uint32) {
	if l.observer != nil {
		l.observer.ObserveScore(score)
	}
}

// settledError reports why a settled loan accepts no further transition.
func settledError(loan *model.LoanRecord) error {
	if loan.Repaid {
		return domainErrors.ErrLoanAlreadyRepaid
	}
	return domainErrors.ErrLoanDefaulted
}

func (l *LoanLedger) loadLoan(ctx context.Context, st repository.State, id uint64) (*model.LoanRecord, error) {
	loan, ok, err := st.Loan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrLoanNotFound
	}
	return loan, nil
}

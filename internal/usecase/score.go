package usecase

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

const (
	repaymentWeight       = 150
	repaymentAmountWeight = 50
	defaultWeight         = 200
	percent               = 100
)

// CalculateScore derives the credit score from the aggregate counters of rec.
// Every rate is computed first, then each weighted term, then the sum, then
// the clamp; all divisions truncate.
func CalculateScore(rec model.CreditRecord) uint32 {
	if rec.TotalLoans == 0 {
		return model.DefaultScore
	}

	repaymentRate := rate(rec.RepaidLoans, rec.TotalLoans)
	defaultRate := rate(rec.DefaultedLoans, rec.TotalLoans)
	repaymentAmountRate := uint256.NewInt(percent)
	if rec.TotalBorrowed > 0 {
		repaymentAmountRate = rate(rec.TotalRepaid, rec.TotalBorrowed)
	}

	raw := uint256.NewInt(uint64(model.DefaultScore))
	raw.Add(raw, weighted(repaymentRate, repaymentWeight))
	raw.Add(raw, weighted(repaymentAmountRate, repaymentAmountWeight))

	penalty := weighted(defaultRate, defaultWeight)
	if raw.Cmp(penalty) <= 0 {
		return model.MinScore
	}
	raw.Sub(raw, penalty)

	switch {
	case raw.LtUint64(uint64(model.MinScore)):
		return model.MinScore
	case raw.GtUint64(uint64(model.MaxScore)):
		return model.MaxScore
	default:
		return uint32(raw.Uint64())
	}
}

func rate(part, whole uint64) *uint256.Int {
	scaled := new(uint256.Int).Mul(uint256.NewInt(part), uint256.NewInt(percent))
	return scaled.Div(scaled, uint256.NewInt(whole))
}

func weighted(r *uint256.Int, weight uint64) *uint256.Int {
	term := new(uint256.Int).Mul(r, uint256.NewInt(weight))
	return term.Div(term, uint256.NewInt(percent))
}

// HeightSource supplies the current block height.
type HeightSource interface {
	Current(ctx context.Context) (uint64, error)
}

type creditEvent int

const (
	eventLoanOpened creditEvent = iota
	eventLoanRepaid
	eventLoanRepaidLate
	eventLoanDefaulted
)

// ScoreEngine owns per-user credit records and keeps their scores current.
type ScoreEngine struct {
	store   repository.Store
	heights HeightSource
}

// NewScoreEngine constructs ScoreEngine.
func NewScoreEngine(store repository.Store, heights HeightSource) *ScoreEngine {
	return &ScoreEngine{store: store, heights: heights}
}

// InitializeUserScore creates the credit record of user with the neutral score.
func (e *ScoreEngine) InitializeUserScore(ctx context.Context, user model.Principal) error {
	if !user.Valid() {
		return domainErrors.ErrInvalidPrincipal
	}
	now, err := e.heights.Current(ctx)
	if err != nil {
		return fmt.Errorf("current height: %w", err)
	}

	return e.store.Atomically(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		if err != nil {
			return err
		}
		if _, err := e.initialize(ctx, st, &meta, user, now); err != nil {
			return err
		}
		return st.PutMeta(ctx, meta)
	})
}

// CreditRecord returns the stored record of user.
func (e *ScoreEngine) CreditRecord(ctx context.Context, user model.Principal) (*model.CreditRecord, error) {
	var rec *model.CreditRecord
	err := e.store.View(ctx, func(st repository.State) error {
		found, ok, err := st.CreditRecord(ctx, user)
		if err != nil {
			return err
		}
		if !ok {
			return domainErrors.ErrUserNotFound
		}
		rec = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Preview computes the score of user from its current aggregates without
// persisting anything. Users without a record get the default score.
func (e *ScoreEngine) Preview(ctx context.Context, user model.Principal) (model.ScorePreview, error) {
	preview := model.ScorePreview{Principal: user, Score: model.DefaultScore, Source: model.ScoreSourceDefault}
	err := e.store.View(ctx, func(st repository.State) error {
		rec, ok, err := st.CreditRecord(ctx, user)
		if err != nil {
			return err
		}
		if ok {
			preview.Score = CalculateScore(*rec)
			preview.Source = model.ScoreSourceRecord
		}
		return nil
	})
	if err != nil {
		return model.ScorePreview{}, err
	}
	return preview, nil
}

// Stats returns the global ledger counters.
func (e *ScoreEngine) Stats(ctx context.Context) (model.LedgerStats, error) {
	var stats model.LedgerStats
	err := e.store.View(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		if err != nil {
			return err
		}
		stats = model.LedgerStats{TotalUsers: meta.TotalUsers, LoanCounter: meta.LoanCounter}
		return nil
	})
	return stats, err
}

// Recompute re-derives and persists the score of user.
func (e *ScoreEngine) Recompute(ctx context.Context, st repository.State, user model.Principal, now uint64) (uint32, error) {
	rec, ok, err := st.CreditRecord(ctx, user)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domainErrors.ErrUserNotFound
	}
	rescore(rec, now)
	if err := st.PutCreditRecord(ctx, rec); err != nil {
		return 0, err
	}
	return rec.Score, nil
}

func (e *ScoreEngine) initialize(ctx context.Context, st repository.State, meta *model.LedgerMeta, user model.Principal, now uint64) (*model.CreditRecord, error) {
	_, exists, err := st.CreditRecord(ctx, user)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	rec := model.NewCreditRecord(user, now)
	if err := st.PutCreditRecord(ctx, rec); err != nil {
		return nil, err
	}
	meta.TotalUsers++
	return rec, nil
}

// apply folds a loan event into the aggregates of user and recomputes the score.
func (e *ScoreEngine) apply(ctx context.Context, st repository.State, user model.Principal, event creditEvent, amount, now uint64) (uint32, error) {
	rec, ok, err := st.CreditRecord(ctx, user)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("credit record of %s missing: %w", user, domainErrors.ErrUserNotFound)
	}

	switch event {
	case eventLoanOpened:
		if rec.TotalBorrowed, err = checkedAdd(rec.TotalBorrowed, amount); err != nil {
			return 0, err
		}
		rec.TotalLoans++
	case eventLoanRepaid, eventLoanRepaidLate:
		if rec.TotalRepaid, err = checkedAdd(rec.TotalRepaid, amount); err != nil {
			return 0, err
		}
		rec.RepaidLoans++
		if event == eventLoanRepaidLate {
			rec.DefaultedLoans++
		}
	case eventLoanDefaulted:
		rec.DefaultedLoans++
	}

	rescore(rec, now)
	if err := st.PutCreditRecord(ctx, rec); err != nil {
		return 0, err
	}
	return rec.Score, nil
}

func rescore(rec *model.CreditRecord, now uint64) {
	rec.Score = CalculateScore(*rec)
	rec.Touch(now)
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("cumulative total overflows: %w", domainErrors.ErrInvalidAmount)
	}
	return sum, nil
}

func loadMeta(ctx context.Context, st repository.State) (model.LedgerMeta, error) {
	meta, _, err := st.Meta(ctx)
	return meta, err
}

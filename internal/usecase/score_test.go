package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	testhelpers "github.com/polkiloo/creditscore/internal/test"
)

func TestCalculateScore(t *testing.T) {
	cases := []struct {
		name string
		rec  model.CreditRecord
		want uint32
	}{
		{"no history", model.CreditRecord{}, 650},
		{"mixed history", model.CreditRecord{TotalLoans: 4, RepaidLoans: 3, DefaultedLoans: 1, TotalBorrowed: 1000, TotalRepaid: 900}, 757},
		{"perfect history clamps high", model.CreditRecord{TotalLoans: 1, RepaidLoans: 1, TotalBorrowed: 100, TotalRepaid: 100}, 850},
		{"open loan", model.CreditRecord{TotalLoans: 1, TotalBorrowed: 1000}, 650},
		{"all defaulted", model.CreditRecord{TotalLoans: 2, DefaultedLoans: 2, TotalBorrowed: 1000}, 450},
		{"late repayments", model.CreditRecord{TotalLoans: 1, RepaidLoans: 1, DefaultedLoans: 1, TotalBorrowed: 100, TotalRepaid: 100}, 650},
		{"no borrowed amount", model.CreditRecord{TotalLoans: 2, DefaultedLoans: 1}, 600},
		{"default counter beyond loans clamps low", model.CreditRecord{TotalLoans: 1, DefaultedLoans: 5, TotalBorrowed: 100}, 300},
		{"overpayment", model.CreditRecord{TotalLoans: 1, RepaidLoans: 1, TotalBorrowed: 100, TotalRepaid: 1000}, 850},
		{"truncated rates", model.CreditRecord{TotalLoans: 3, RepaidLoans: 1, TotalBorrowed: 3, TotalRepaid: 1}, 715},
		{"extreme totals", model.CreditRecord{TotalLoans: math.MaxUint64, RepaidLoans: math.MaxUint64, TotalBorrowed: math.MaxUint64, TotalRepaid: math.MaxUint64}, 850},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateScore(tc.rec); got != tc.want {
				t.Fatalf("CalculateScore(%+v) = %d, want %d", tc.rec, got, tc.want)
			}
		})
	}
}

func TestCalculateScoreStaysWithinBounds(t *testing.T) {
	values := []uint64{0, 1, 2, 3, 7, 10, 99, 100, 1000, math.MaxUint32, math.MaxUint64 / 2, math.MaxUint64}
	for _, total := range values[1:] {
		for _, repaid := range values {
			for _, defaulted := range values {
				for _, borrowed := range values {
					for _, repaidAmount := range values {
						rec := model.CreditRecord{
							TotalLoans:     total,
							RepaidLoans:    repaid,
							DefaultedLoans: defaulted,
							TotalBorrowed:  borrowed,
							TotalRepaid:    repaidAmount,
						}
						score := CalculateScore(rec)
						if score < model.MinScore || score > model.MaxScore {
							t.Fatalf("score %d out of bounds for %+v", score, rec)
						}
					}
				}
			}
		}
	}
}

func newScoreEngine(height uint64) (*ScoreEngine, *testhelpers.MemoryStore, *testhelpers.HeightStub) {
	store := testhelpers.NewMemoryStore()
	heights := testhelpers.NewHeightStub(height)
	return NewScoreEngine(store, heights), store, heights
}

func TestInitializeUserScore(t *testing.T) {
	engine, store, _ := newScoreEngine(42)
	ctx := context.Background()

	if err := engine.InitializeUserScore(ctx, "alice"); err != nil {
		t.Fatalf("initialize returned error: %v", err)
	}
	rec, ok := store.Credit("alice")
	if !ok {
		t.Fatal("expected credit record to be stored")
	}
	want := model.CreditRecord{Principal: "alice", Score: 650, LastUpdated: 42}
	if rec != want {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := store.CommittedMeta().TotalUsers; got != 1 {
		t.Fatalf("expected 1 user, got %d", got)
	}
}

func TestInitializeUserScoreTwiceFails(t *testing.T) {
	engine, store, heights := newScoreEngine(1)
	ctx := context.Background()

	if err := engine.InitializeUserScore(ctx, "alice"); err != nil {
		t.Fatalf("initialize returned error: %v", err)
	}
	before, _ := store.Credit("alice")
	metaBefore := store.CommittedMeta()

	heights.Set(5)
	if err := engine.InitializeUserScore(ctx, "alice"); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	after, _ := store.Credit("alice")
	if after != before {
		t.Fatalf("record changed: %+v -> %+v", before, after)
	}
	if store.CommittedMeta() != metaBefore {
		t.Fatalf("meta changed: %+v -> %+v", metaBefore, store.CommittedMeta())
	}
}

func TestInitializeUserScoreValidation(t *testing.T) {
	engine, store, heights := newScoreEngine(1)

	if err := engine.InitializeUserScore(context.Background(), "bad principal"); err != domainErrors.ErrInvalidPrincipal {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}

	heightErr := errors.New("node down")
	heights.Err = heightErr
	if err := engine.InitializeUserScore(context.Background(), "alice"); !errors.Is(err, heightErr) {
		t.Fatalf("expected height error, got %v", err)
	}
	if store.Commits != 0 {
		t.Fatalf("expected no commits, got %d", store.Commits)
	}
}

func TestCreditRecordLookup(t *testing.T) {
	engine, store, _ := newScoreEngine(1)
	store.SeedCredit(model.CreditRecord{Principal: "bob", Score: 700, TotalLoans: 2})

	rec, err := engine.CreditRecord(context.Background(), "bob")
	if err != nil {
		t.Fatalf("lookup returned error: %v", err)
	}
	if rec.Score != 700 || rec.TotalLoans != 2 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := engine.CreditRecord(context.Background(), "nobody"); err != domainErrors.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	engine, store, _ := newScoreEngine(1)
	store.SeedCredit(model.CreditRecord{
		Principal: "carol", Score: 650,
		TotalLoans: 4, RepaidLoans: 3, DefaultedLoans: 1, TotalBorrowed: 1000, TotalRepaid: 900,
	})
	ctx := context.Background()

	preview, err := engine.Preview(ctx, "carol")
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	if preview.Score != 757 || preview.Source != model.ScoreSourceRecord {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if rec, _ := store.Credit("carol"); rec.Score != 650 {
		t.Fatalf("preview must not persist, stored score %d", rec.Score)
	}

	preview, err = engine.Preview(ctx, "nobody")
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	if preview.Score != model.DefaultScore || preview.Source != model.ScoreSourceDefault {
		t.Fatalf("unexpected default preview %+v", preview)
	}
}

func TestStats(t *testing.T) {
	engine, store, _ := newScoreEngine(1)
	store.SeedMeta(model.LedgerMeta{Owner: "owner", TotalUsers: 3, LoanCounter: 9})

	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}
	if stats.TotalUsers != 3 || stats.LoanCounter != 9 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStatsOnEmptyLedger(t *testing.T) {
	engine, _, _ := newScoreEngine(1)
	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}
	if stats != (model.LedgerStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestStorageErrorsPropagate(t *testing.T) {
	engine, store, _ := newScoreEngine(1)
	storeErr := errors.New("disk full")
	store.Err = storeErr

	if _, err := engine.CreditRecord(context.Background(), "alice"); err != storeErr {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := engine.Preview(context.Background(), "alice"); err != storeErr {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := engine.Stats(context.Background()); err != storeErr {
		t.Fatalf("expected storage error, got %v", err)
	}
}

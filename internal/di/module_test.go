package di

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/creditscore/internal/app"
	"github.com/polkiloo/creditscore/internal/config"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
	testhelpers "github.com/polkiloo/creditscore/internal/test"
)

func TestModuleComposesGraphWithLevelDB(t *testing.T) {
	cfg := &config.Config{
		RunAddress:           "127.0.0.1:0",
		StorageDriver:        config.StorageDriverLevelDB,
		LevelDBPath:          filepath.Join(t.TempDir(), "ledger"),
		OwnerPrincipal:       "owner",
		TokenSecret:          "secret",
		TokenTTL:             time.Hour,
		BlockInterval:        time.Minute,
		GenesisTime:          time.Now().Add(-time.Hour),
		ScoreRefreshInterval: time.Hour,
		ScoreRefreshAge:      144,
		ScoreRefreshBatch:    1,
		WorkerPoolSize:       1,
		ShutdownTimeout:      time.Second,
		RateLimitRPM:         60,
		RateLimitBurst:       10,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var facade *app.CreditFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
		),
		fx.Populate(&facade),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}

	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })

	if facade == nil {
		t.Fatal("expected credit facade instance")
	}
	if ok, err := facade.IsAuthorizedReporter(ctx, "owner"); err != nil || !ok {
		t.Fatalf("expected owner to be deployed as reporter, got %v %v", ok, err)
	}
	height, err := facade.Height(ctx)
	if err != nil || height < 60 {
		t.Fatalf("expected local clock height of about 60, got %d %v", height, err)
	}
	if _, err := facade.RecordLoan(ctx, "alice", model.LoanRequest{Borrower: "alice", Lender: "bank", Amount: 10, Duration: 1}); err != nil {
		t.Fatalf("record loan returned error: %v", err)
	}
	if n, err := facade.LoanCounter(ctx); err != nil || n != 1 {
		t.Fatalf("expected loan counter 1, got %d %v", n, err)
	}
}

func TestModuleAcceptsStoreReplacement(t *testing.T) {
	cfg := &config.Config{
		RunAddress:      "127.0.0.1:0",
		StorageDriver:   config.StorageDriverLevelDB,
		LevelDBPath:     filepath.Join(t.TempDir(), "unused"),
		OwnerPrincipal:  "owner",
		TokenSecret:     "secret",
		WorkerPoolSize:  1,
		ShutdownTimeout: time.Second,
	}
	store := testhelpers.NewMemoryStore()
	accounts := testhelpers.NewAccountRepositoryStub()

	var facade *app.CreditFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Module(
			fx.Replace(cfg),
			fx.Replace(slog.New(slog.NewJSONHandler(io.Discard, nil))),
			fx.Decorate(func() repository.Store { return store }),
			fx.Decorate(func() repository.AccountRepository { return accounts }),
		),
		fx.Populate(&facade),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	if _, err := facade.Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, ok := accounts.Accounts["alice"]; !ok {
		t.Fatal("expected replacement account repository to be used")
	}
}

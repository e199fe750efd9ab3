package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// viewTxOptions gives read-only invocations a consistent snapshot.
var viewTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Storage implements the ledger store and account repository on PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Accounts returns the account repository backed by this storage.
func (s *Storage) Accounts() repository.AccountRepository {
	return &accountRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ledger_meta (
            id SMALLINT PRIMARY KEY CHECK (id = 1),
            owner TEXT NOT NULL DEFAULT '',
            loan_counter BIGINT NOT NULL DEFAULT 0,
            total_users BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO ledger_meta (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS credit_records (
            principal TEXT PRIMARY KEY,
            score INTEGER NOT NULL,
            last_updated BIGINT NOT NULL,
            total_loans BIGINT NOT NULL DEFAULT 0,
            repaid_loans BIGINT NOT NULL DEFAULT 0,
            defaulted_loans BIGINT NOT NULL DEFAULT 0,
            total_borrowed BIGINT NOT NULL DEFAULT 0,
            total_repaid BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS loans (
            id BIGINT PRIMARY KEY,
            borrower TEXT NOT NULL,
            lender TEXT NOT NULL,
            amount BIGINT NOT NULL,
            interest_rate BIGINT NOT NULL,
            due_date BIGINT NOT NULL,
            repaid BOOLEAN NOT NULL DEFAULT FALSE,
            repaid_amount BIGINT NOT NULL DEFAULT 0,
            created_at BIGINT NOT NULL,
            defaulted BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE TABLE IF NOT EXISTS authorized_reporters (
            principal TEXT PRIMARY KEY,
            authorized_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS accounts (
            principal TEXT PRIMARY KEY,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_credit_records_last_updated ON credit_records(last_updated, principal)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	if s.logger != nil {
		s.logger.Debug("postgres schema ready")
	}
	return nil
}

// Atomically runs fn in a read-write transaction. Rows read through State are
// locked until commit, ledger meta first, then loans, then credit records.
func (s *Storage) Atomically(ctx context.Context, fn func(repository.State) error) error {
	return s.WithinTransaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&txState{q: tx, forUpdate: true})
	})
}

// View runs fn in a read-only snapshot transaction.
func (s *Storage) View(ctx context.Context, fn func(repository.State) error) error {
	return s.WithinTransaction(ctx, viewTxOptions, func(tx pgx.Tx) error {
		return fn(&txState{q: tx})
	})
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// BIGINT columns hold uint64 values only up to math.MaxInt64.
func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds storage range: %w", v, domainErrors.ErrInvalidAmount)
	}
	return int64(v), nil
}

func fromInt64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative stored value %d", v)
	}
	return uint64(v), nil
}

func encodeUints(vals ...uint64) ([]any, error) {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeUints(dst []*uint64, src []int64) error {
	for i, v := range src {
		n, err := fromInt64(v)
		if err != nil {
			return err
		}
		*dst[i] = n
	}
	return nil
}

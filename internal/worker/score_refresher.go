package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/creditscore/internal/adapter/height"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/metrics"
)

// CreditFacade exposes the subset of application functionality required by the worker.
type CreditFacade interface {
	StaleCreditRecords(ctx context.Context, age uint64, limit int) ([]model.CreditRecord, error)
	UpdateCreditScore(ctx context.Context, caller, user model.Principal) (uint32, error)
}

// Options configures ScoreRefresher.
type Options struct {
	Caller       model.Principal
	PollInterval time.Duration
	Age          uint64
	BatchSize    int
	Workers      int
}

// ScoreRefresher recomputes scores of credit records that fell behind the
// current height, using a pool of workers.
type ScoreRefresher struct {
	facade       CreditFacade
	caller       model.Principal
	pollInterval time.Duration
	age          uint64
	batchSize    int
	workers      int
	logger       *slog.Logger
	metrics      *metrics.Metrics

	jobs   chan model.Principal
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewScoreRefresher constructs the score refresher worker pool.
func NewScoreRefresher(facade CreditFacade, opts Options, logger *slog.Logger, m *metrics.Metrics) *ScoreRefresher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	return &ScoreRefresher{
		facade:       facade,
		caller:       opts.Caller,
		pollInterval: opts.PollInterval,
		age:          opts.Age,
		batchSize:    opts.BatchSize,
		workers:      opts.Workers,
		logger:       logger,
		metrics:      m,
		jobs:         make(chan model.Principal, opts.BatchSize*opts.Workers),
	}
}

// Start launches background processing.
func (r *ScoreRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *ScoreRefresher) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *ScoreRefresher) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *ScoreRefresher) fetchAndDispatch(ctx context.Context) {
	records, err := r.facade.StaleCreditRecords(ctx, r.age, r.batchSize)
	if err != nil {
		if r.backoff(ctx, err) {
			return
		}
		r.logger.Error("fetch stale credit records failed", slog.String("error", err.Error()))
		return
	}
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- rec.Principal:
		}
	}
}

func (r *ScoreRefresher) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-r.jobs:
			if !ok {
				return
			}
			r.refresh(ctx, user)
		}
	}
}

func (r *ScoreRefresher) refresh(ctx context.Context, user model.Principal) {
	score, err := r.facade.UpdateCreditScore(ctx, r.caller, user)
	r.metrics.ObserveRefresh(err)
	if err != nil {
		if r.backoff(ctx, err) {
			return
		}
		r.logger.Error("refresh credit score failed", slog.String("principal", user.String()), slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("credit score refreshed", slog.String("principal", user.String()), slog.Int("score", int(score)))
}

// backoff sleeps for the advertised delay when err signals rate limiting
// by the height source and reports whether it did.
func (r *ScoreRefresher) backoff(ctx context.Context, err error) bool {
	var limited height.TooManyRequestsError
	if !errors.As(err, &limited) {
		return false
	}
	r.logger.Warn("height source rate limited", slog.Duration("retry_after", limited.RetryAfter))
	timer := time.NewTimer(limited.RetryAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return true
}

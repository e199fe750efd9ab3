package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/creditscore/internal/config"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/metrics"
	"github.com/polkiloo/creditscore/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewCreditFacade,
		newHTTPServer,
		newScoreRefresher,
		func(f *CreditFacade) Deployer { return f },
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade  *CreditFacade
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func newScoreRefresher(p workerParams) *worker.ScoreRefresher {
	return worker.NewScoreRefresher(
		p.Facade,
		worker.Options{
			Caller:       model.Principal(p.Config.OwnerPrincipal),
			PollInterval: p.Config.ScoreRefreshInterval,
			Age:          p.Config.ScoreRefreshAge,
			BatchSize:    p.Config.ScoreRefreshBatch,
			Workers:      p.Config.WorkerPoolSize,
		},
		p.Logger,
		p.Metrics,
	)
}

// Deployer fixes the ledger owner before traffic is served.
type Deployer interface {
	Deploy(ctx context.Context, owner model.Principal) error
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.ScoreRefresher
	Deployer   Deployer
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	// The OnStart context only bounds startup.
	workerCtx, cancelWorker := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			owner := model.Principal(p.Config.OwnerPrincipal)
			if err := p.Deployer.Deploy(ctx, owner); err != nil {
				cancelWorker()
				return fmt.Errorf("deploy ledger owner %q: %w", owner, err)
			}

			p.Logger.Info("starting creditscored", slog.String("addr", p.Server.Addr), slog.String("owner", owner.String()))
			p.Worker.Start(workerCtx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelWorker()
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("creditscored stopped")
			return nil
		},
	})
}

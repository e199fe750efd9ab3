package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/creditscore/internal/adapter/height"
	"github.com/polkiloo/creditscore/internal/app"
	"github.com/polkiloo/creditscore/internal/config"
	"github.com/polkiloo/creditscore/internal/logger"
	"github.com/polkiloo/creditscore/internal/metrics"
	"github.com/polkiloo/creditscore/internal/pkg/auth"
	"github.com/polkiloo/creditscore/internal/server/http/handlers"
	"github.com/polkiloo/creditscore/internal/server/http/router"
	"github.com/polkiloo/creditscore/internal/storage"
	"github.com/polkiloo/creditscore/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		storage.Module,
		height.Module,
		fx.Provide(func(source height.Source) usecase.HeightSource { return source }),
		fx.Provide(func(m *metrics.Metrics) usecase.ScoreObserver { return m }),
		usecase.Module,
		fx.Provide(func(f *app.CreditFacade) handlers.CreditFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/creditscore/internal/config"
	"github.com/polkiloo/creditscore/internal/domain/repository"
	"github.com/polkiloo/creditscore/internal/storage/leveldb"
	"github.com/polkiloo/creditscore/internal/storage/postgres"
)

// Backend is a ledger store that also keeps principal accounts.
type Backend interface {
	repository.Store
	Accounts() repository.AccountRepository
}

// Module wires the configured storage driver.
var Module = fx.Options(
	fx.Provide(newBackend),
	fx.Provide(
		func(b Backend) repository.Store { return b },
		func(b Backend) repository.AccountRepository { return b.Accounts() },
	),
)

type backendParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

var (
	openPostgres = func(ctx context.Context, dsn string, logger *slog.Logger) (*postgres.Storage, error) {
		return postgres.New(ctx, dsn, logger)
	}
	openLevelDB = leveldb.Open
)

func newBackend(p backendParams) (Backend, error) {
	switch p.Config.StorageDriver {
	case config.StorageDriverPostgres:
		st, err := openPostgres(p.Ctx, p.Config.DatabaseURI, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				st.Close()
				return nil
			},
		})
		return st, nil
	case config.StorageDriverLevelDB:
		st, err := openLevelDB(p.Config.LevelDBPath, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error { return st.Close() },
		})
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", p.Config.StorageDriver)
	}
}

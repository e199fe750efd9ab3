package height

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/creditscore/internal/config"
)

// Module exposes the configured height source to fx graph.
var Module = fx.Provide(newSource)

type sourceParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newSource(p sourceParams) (Source, error) {
	if p.Config.HeightSourceAddress == "" {
		p.Logger.Info("using local height clock",
			slog.Time("genesis", p.Config.GenesisTime),
			slog.Duration("block_interval", p.Config.BlockInterval))
		return NewLocalClock(p.Config.GenesisTime, p.Config.BlockInterval), nil
	}
	return NewHTTPSource(p.Config.HeightSourceAddress, p.Logger)
}

package tally

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/governance/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Redis  *redis.Client `optional:"true"`
}

func New(p Params) (domain.Tally, error) {
	switch p.Config.VoteTallyBackend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		p.Log.Info("using redis vote tally")
		return NewRedis(p.Redis, "")
	default:
		return nil, fmt.Errorf("unknown vote tally backend %q", p.Config.VoteTallyBackend)
	}
}

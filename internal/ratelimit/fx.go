package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(provideCallerLimiter),
)

type Params struct {
	fx.In

	Config config.Config
	Redis  *redis.Client `optional:"true"`
}

func provideCallerLimiter(p Params) (*CallerLimiter, error) {
	return NewCallerLimiter(p.Config, p.Redis)
}

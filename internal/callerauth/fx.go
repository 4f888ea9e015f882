package callerauth

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("caller.auth",
	fx.Provide(provideVerifier),
)

type Params struct {
	fx.In

	Config config.Config
	Clock  clock.Clock
	Redis  *redis.Client `optional:"true"`
}

func provideVerifier(p Params) *Verifier {
	var replay ReplayGuard
	if p.Redis != nil {
		replay = NewRedisReplayGuard(p.Redis)
	}
	return NewVerifier(p.Clock, time.Duration(p.Config.CallerAuth.MaxSkewSeconds)*time.Second, replay)
}

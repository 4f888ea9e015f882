package sequencer

import (
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("sequencer",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Redis   *redis.Client `optional:"true"`
	Metrics *metrics.OperationMetrics `optional:"true"`
}

func New(p Params) (Sequencer, error) {
	switch strings.ToLower(strings.TrimSpace(p.Config.SequencerBackend)) {
	case "", "local":
		return NewLocal(p.Metrics), nil
	case "redis":
		return NewRedis(p.Redis, RedisOptions{}, p.Metrics, p.Log)
	default:
		return nil, fmt.Errorf("unsupported sequencer backend %q", p.Config.SequencerBackend)
	}
}

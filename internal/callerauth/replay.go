package callerauth

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/clock"
)

const replayKeyPrefix = "flightsurety:callerauth:seen:"

// ReplayGuard remembers accepted signatures for the window they stay valid.
type ReplayGuard interface {
	// Remember records key and reports whether it was unseen.
	Remember(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type memoryReplayGuard struct {
	mu    sync.Mutex
	clock clock.Clock
	seen  map[string]time.Time
}

// NewMemoryReplayGuard keeps seen keys in process. Expired keys are dropped on
// every call, so the map is bounded by the traffic of one window.
func NewMemoryReplayGuard(clk clock.Clock) ReplayGuard {
	return &memoryReplayGuard{
		clock: clk,
		seen:  make(map[string]time.Time),
	}
}

func (g *memoryReplayGuard) Remember(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()
	for k, expires := range g.seen {
		if !now.Before(expires) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = now.Add(ttl)
	return true, nil
}

type redisReplayGuard struct {
	client *redis.Client
}

// NewRedisReplayGuard shares seen keys across replicas.
func NewRedisReplayGuard(client *redis.Client) ReplayGuard {
	return &redisReplayGuard{client: client}
}

func (g *redisReplayGuard) Remember(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, replayKeyPrefix+key, 1, ttl).Result()
}

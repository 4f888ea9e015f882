package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/config"
)

const keyCaller = "flightsurety:ratelimit:caller:%s"

// CallerLimiter throttles mutating requests per caller address.
type CallerLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCallerLimiter(cfg config.Config, client *redis.Client) (*CallerLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires REDIS_ADDR")
	}
	if limitCfg.CallerRate <= 0 || limitCfg.CallerBurst <= 0 {
		return nil, errors.New("caller rate limit must be positive")
	}

	return &CallerLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.CallerRate,
		burst:   limitCfg.CallerBurst,
	}, nil
}

func (l *CallerLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CallerLimiter) Allow(ctx context.Context, caller string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCaller, strings.ToLower(strings.TrimSpace(caller))), l.rate, l.burst)
}

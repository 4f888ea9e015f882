package sequencer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	defaultLockKey   = "flightsurety:sequencer"
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 25 * time.Millisecond
)

// Locker is a single-key Redis mutex with token-checked release.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// RedisOptions tunes the distributed sequencer.
type RedisOptions struct {
	Key   string
	TTL   time.Duration
	Retry time.Duration
}

type redisSequencer struct {
	local    *localSequencer
	locker   *Locker
	observer WaitObserver
	log      *zap.Logger

	key   string
	ttl   time.Duration
	retry time.Duration
}

// NewRedis returns a sequencer shared by every process using the same Redis key.
// Operations are bounded by the lock TTL so an expired lock never overlaps a running operation.
func NewRedis(client *redis.Client, opts RedisOptions, observer WaitObserver, log *zap.Logger) (Sequencer, error) {
	locker := NewLocker(client)
	if locker == nil {
		return nil, errors.New("redis sequencer requires a redis client")
	}
	if opts.Key == "" {
		opts.Key = defaultLockKey
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultLockTTL
	}
	if opts.Retry <= 0 {
		opts.Retry = defaultLockRetry
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &redisSequencer{
		local:    &localSequencer{slot: make(chan struct{}, 1)},
		locker:   locker,
		observer: observer,
		log:      log.Named("sequencer.redis"),
		key:      opts.Key,
		ttl:      opts.TTL,
		retry:    opts.Retry,
	}, nil
}

func (s *redisSequencer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if Held(ctx) {
		return fn(ctx)
	}

	start := time.Now()
	if err := s.local.acquire(ctx); err != nil {
		return err
	}
	defer s.local.release()

	token, err := s.lock(ctx)
	if err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.ObserveSequencerWait(time.Since(start))
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, s.key, token); err != nil {
			s.log.Warn("sequencer release failed", zap.Error(err))
		}
	}()

	opCtx, cancel := context.WithTimeout(ctx, s.ttl)
	defer cancel()
	return fn(withHeld(opCtx))
}

func (s *redisSequencer) lock(ctx context.Context) (string, error) {
	ticker := time.NewTicker(s.retry)
	defer ticker.Stop()

	for {
		token, ok, err := s.locker.TryLock(ctx, s.key, s.ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrSequencerBusy
			}
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

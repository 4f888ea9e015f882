package tally

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flightsurety/internal/governance/domain"
)

const defaultKeyPrefix = "flightsurety:votes:"

type redisTally struct {
	client *redis.Client
	prefix string
}

// NewRedis stores each candidate's voters in a Redis set so every replica
// sees the same tally.
func NewRedis(client *redis.Client, prefix string) (domain.Tally, error) {
	if client == nil {
		return nil, errors.New("redis client is required for the redis vote tally")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisTally{client: client, prefix: prefix}, nil
}

func (r *redisTally) key(candidate common.Address) string {
	return r.prefix + strings.ToLower(candidate.Hex())
}

func (r *redisTally) Voters(ctx context.Context, candidate common.Address) ([]common.Address, error) {
	members, err := r.client.SMembers(ctx, r.key(candidate)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	out := make([]common.Address, 0, len(members))
	for _, m := range members {
		out = append(out, common.HexToAddress(m))
	}
	return out, nil
}

func (r *redisTally) Add(ctx context.Context, candidate, voter common.Address) error {
	added, err := r.client.SAdd(ctx, r.key(candidate), strings.ToLower(voter.Hex())).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return domain.ErrDuplicateVote
	}
	return nil
}

func (r *redisTally) Reset(ctx context.Context, candidate common.Address) error {
	return r.client.Del(ctx, r.key(candidate)).Err()
}

package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPolicy keeps the per-identity window in a Redis sorted set scored
// by unix nanoseconds, so the window survives restarts and is shared
// between replicas.
type RedisPolicy struct {
	client redis.UniversalClient
	config Config
}

// NewRedisPolicy creates a Redis-backed sliding window limiter.
func NewRedisPolicy(client redis.UniversalClient, config Config) *RedisPolicy {
	return &RedisPolicy{
		client: client,
		config: config.normalized(),
	}
}

func (p *RedisPolicy) key(identity string) string {
	return "request_window:" + identity
}

func (p *RedisPolicy) IsAllowed(ctx context.Context, identity string) (bool, error) {
	key := p.key(identity)
	cutoff := time.Now().Add(-p.config.Window).UnixNano()

	// Purge entries that left the window before counting.
	if err := p.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
		return false, err
	}

	count, err := p.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count < int64(p.config.MaxRequests), nil
}

func (p *RedisPolicy) RecordRequest(ctx context.Context, identity string) error {
	key := p.key(identity)
	now := time.Now().UnixNano()

	pipe := p.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	// Keep the key from outliving an idle identity.
	pipe.Expire(ctx, key, p.config.Window)
	_, err := pipe.Exec(ctx)
	return err
}

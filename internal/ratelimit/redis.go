package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cimillas/concert-ticketing/internal/clock"
)

const defaultKeyPrefix = "ratelimit:purchase"

// RedisLimiter shares fixed windows across instances through INCR and EXPIRE.
type RedisLimiter struct {
	client redis.Cmdable
	clock  clock.Clock
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client redis.Cmdable, limit int64, per time.Duration, clk clock.Clock) (*RedisLimiter, error) {
	if limit <= 0 || per <= 0 {
		return nil, errInvalidLimit
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &RedisLimiter{
		client: client,
		clock:  clk,
		limit:  limit,
		window: per,
		prefix: defaultKeyPrefix,
	}, nil
}

// NewRedisClient dials addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.clock.Now().UnixNano() / int64(l.window)
	redisKey := l.prefix + ":" + key + ":" + strconv.FormatInt(bucket, 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}

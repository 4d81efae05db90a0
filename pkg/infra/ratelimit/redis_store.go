package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ domain.CounterStore = (*RedisWindowStore)(nil)

type RedisStoreOpts struct {
	UuidProvider func() uuid.UUID
}

// RedisWindowStore keeps one sorted set per key. Members are request events
// scored by their epoch millisecond, so every instance sharing the Redis
// deployment sees the same window.
type RedisWindowStore struct {
	redis        *redis.Client
	uuidProvider func() uuid.UUID
}

func NewRedisWindowStore(redisClient *redis.Client, opts *RedisStoreOpts) *RedisWindowStore {
	uuidProvider := uuid.New
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}
	return &RedisWindowStore{
		redis:        redisClient,
		uuidProvider: uuidProvider,
	}
}

func (s *RedisWindowStore) RecordAndCount(
	ctx context.Context,
	key domain.LimitKey,
	now time.Time,
	window time.Duration,
	_ int,
) (domain.WindowState, error) {
	nowMs := now.UnixMilli()
	windowStart := nowMs - window.Milliseconds()
	k := key.String()

	pipe := s.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, k, &redis.Z{
		Score:  float64(nowMs),
		Member: fmt.Sprintf("%d:%s", nowMs, s.uuidProvider().String()),
	})
	countCmd := pipe.ZCard(ctx, k)
	oldestCmd := pipe.ZRangeWithScores(ctx, k, 0, 0)
	pipe.PExpire(ctx, k, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return domain.WindowState{}, fmt.Errorf("failed to execute sliding window pipeline: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return domain.WindowState{}, fmt.Errorf("failed to read window count: %w", err)
	}

	resetAt := now.Add(window)
	if oldest, err := oldestCmd.Result(); err == nil && len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	return domain.WindowState{Count: count, ResetAt: resetAt}, nil
}

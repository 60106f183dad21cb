package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore keeps request timestamps in a sorted set per key, scored by
// nanosecond arrival time, so all replicas share one window.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// RecordIfAllowed checks and records in two round trips, so concurrent
// requests for the same key may overshoot the limit by a few entries.
func (s *RedisStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, error) {
	k := redisKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := card.Val()
	if count >= int64(limit) {
		return false, count, nil
	}

	add := s.rdb.TxPipeline()
	add.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	add.Expire(ctx, k, window)
	if _, err := add.Exec(ctx); err != nil {
		return false, count, err
	}
	return true, count + 1, nil
}

func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := redisKeyPrefix + key
	cutoff := strconv.FormatInt(time.Now().Add(-window).UnixNano(), 10)

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

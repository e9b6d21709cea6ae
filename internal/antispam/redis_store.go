package antispam

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisAttemptStore keeps attempts in one sorted set per key, scored by epoch milliseconds,
// so every API instance shares the same window.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisAttemptStore creates a store whose keys expire after ttl of inactivity
func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{
		client: client,
		prefix: "order-attempts:",
		ttl:    ttl,
	}
}

func (s *RedisAttemptStore) Get(ctx context.Context, key string) ([]time.Time, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.prefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}

	out := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		out = append(out, time.UnixMilli(int64(entry.Score)))
	}
	return out, nil
}

func (s *RedisAttemptStore) Prune(ctx context.Context, key string, cutoff time.Time) (int, error) {
	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, s.prefix+key, "-inf", strconv.FormatInt(cutoff.UnixMilli(), 10))
		card = pipe.ZCard(ctx, s.prefix+key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	return int(card.Val()), nil
}

func (s *RedisAttemptStore) Append(ctx context.Context, key string, at time.Time) error {
	ms := at.UnixMilli()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.prefix+key, &redis.Z{
			Score:  float64(ms),
			Member: fmt.Sprintf("%d-%s", ms, uuid.NewString()),
		})
		pipe.Expire(ctx, s.prefix+key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

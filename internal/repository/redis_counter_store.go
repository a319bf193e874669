package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const redisCounterPrefix = "helpdesk:counter:"

type redisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore returns a CounterStore backed by Redis INCR.
func NewRedisCounterStore(client *redis.Client) CounterStore {
	return &redisCounterStore{client: client}
}

// Next seeds the counter with SETNX on first use, then relies on INCR as the
// atomic increment-and-fetch.
func (s *redisCounterStore) Next(ctx context.Context, key string, seed int64) (int64, error) {
	redisKey := redisCounterPrefix + key
	if err := s.client.SetNX(ctx, redisKey, seed, 0).Err(); err != nil {
		return 0, err
	}
	return s.client.Incr(ctx, redisKey).Result()
}

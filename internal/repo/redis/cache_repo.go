package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheRepo struct {
	client *redis.Client
	prefix string
}

func NewCacheRepo(client *redis.Client) *CacheRepo {
	return &CacheRepo{client: client, prefix: "cache:"}
}

// GetInt returns ok=false on a cache miss.
func (r *CacheRepo) GetInt(ctx context.Context, key string) (int, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get cache key: %w", err)
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached value: %w", err)
	}
	return value, true, nil
}

func (r *CacheRepo) SetInt(ctx context.Context, key string, value int, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if err := r.client.Set(ctx, r.prefix+key, strconv.Itoa(value), ttl).Err(); err != nil {
		return fmt.Errorf("set cache key: %w", err)
	}
	return nil
}

func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete cache key: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaseRepo hands out short exclusive leases so that only one replica runs a background tick.
type LeaseRepo struct {
	client *redis.Client
	newID  func() string
}

func NewLeaseRepo(client *redis.Client) *LeaseRepo {
	return &LeaseRepo{client: client, newID: uuid.NewString}
}

// Acquire returns a release func when the lease was taken; ok is false when another holder has it.
func (r *LeaseRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return nil, false, fmt.Errorf("invalid lease payload")
	}

	token := r.newID()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lease: %w", err)
		}
		return nil
	}
	return release, true, nil
}

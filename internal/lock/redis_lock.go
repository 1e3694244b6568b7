package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockValue = "LOCKED"

// RedisLock implements DistributedLock on a single Redis instance using
// SET NX PX for acquisition and DEL for release. The TTL bounds how long a
// crashed holder can keep a coupon locked.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, key, lockValue, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %q: %w", key, err)
	}
	return acquired, nil
}

// Release deletes the key without verifying ownership, so a holder whose TTL
// already expired can delete a newer holder's lock.
func (l *RedisLock) Release(ctx context.Context, key string) (bool, error) {
	deleted, err := l.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("del %q: %w", key, err)
	}
	return deleted > 0, nil
}

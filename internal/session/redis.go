package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisDriver stores sessions in Redis so multiple instances share state.
// TTL enforcement rides on Redis key expiry; no snapshot support, Redis
// handles its own durability.
type RedisDriver struct {
	client *redis.Client
}

// NewRedisDriver wraps an existing Redis client.
func NewRedisDriver(client *redis.Client) *RedisDriver {
	return &RedisDriver{client: client}
}

var _ Driver = (*RedisDriver)(nil)

func (d *RedisDriver) Get(ctx context.Context, key string) (*Session, error) {
	raw, err := d.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &sess, nil
}

func (d *RedisDriver) Put(ctx context.Context, key string, sess *Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := d.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (d *RedisDriver) Delete(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

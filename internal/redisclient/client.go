package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client backs the shared session store and the checkout idempotency keys.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(key, field string) string {
	return fmt.Sprintf("session:%s:%s", key, field)
}

// SaveSessionField stores one field of a device session. Sessions have no
// TTL; they live until explicit logout.
func (c *Client) SaveSessionField(ctx context.Context, key, field string, value []byte) error {
	return c.rdb.Set(ctx, sessionKey(key, field), value, 0).Err()
}

// LoadSessionField returns nil, nil when the field is absent.
func (c *Client) LoadSessionField(ctx context.Context, key, field string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, sessionKey(key, field)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// ClearSession removes the given fields of a session in one pipeline.
func (c *Client) ClearSession(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, f := range fields {
		pipe.Del(ctx, sessionKey(key, f))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// GetIdempotencyKey returns "" when key is absent.
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *Client) DeleteIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("idempotency:%s", key)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

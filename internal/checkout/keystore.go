package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-storefront/internal/redisclient"

	"github.com/google/uuid"
)

var ErrCheckoutInProgress = errors.New("checkout already in progress")

// KeyStore hands out the idempotency key of the current checkout attempt.
// Key returns the same value until Reset, so a resubmission after a lost
// response reuses it.
type KeyStore interface {
	Key(ctx context.Context) (string, error)
	Reset(ctx context.Context) error
}

type MemoryKeyStore struct {
	mu  sync.Mutex
	key string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{}
}

func (s *MemoryKeyStore) Key(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == "" {
		s.key = uuid.New().String()
	}
	return s.key, nil
}

func (s *MemoryKeyStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
	return nil
}

// RedisKeyStore keeps the key in Redis so it survives a restart of the
// storefront between a lost response and the retry.
type RedisKeyStore struct {
	redis *redisclient.Client
	scope string
	ttl   time.Duration
}

func NewRedisKeyStore(redis *redisclient.Client, scope string) *RedisKeyStore {
	return &RedisKeyStore{redis: redis, scope: "checkout:" + scope, ttl: 24 * time.Hour}
}

func (s *RedisKeyStore) Key(ctx context.Context) (string, error) {
	locked, err := s.redis.AcquireLock(ctx, s.scope, 5*time.Second)
	if err != nil {
		return "", fmt.Errorf("failed to lock checkout key: %w", err)
	}
	if !locked {
		return "", ErrCheckoutInProgress
	}
	defer s.redis.ReleaseLock(ctx, s.scope)

	key, err := s.redis.GetIdempotencyKey(ctx, s.scope)
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}

	key = uuid.New().String()
	if err := s.redis.SetIdempotencyKey(ctx, s.scope, key, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store checkout key: %w", err)
	}
	return key, nil
}

func (s *RedisKeyStore) Reset(ctx context.Context) error {
	return s.redis.DeleteIdempotencyKey(ctx, s.scope)
}

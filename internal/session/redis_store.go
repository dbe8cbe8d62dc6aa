package session

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/redisclient"
)

const (
	fieldToken       = "token"
	fieldUser        = "user"
	fieldPreferences = "preferences"
)

// RedisStore keeps the session under session:<key>:* so several storefront
// processes can share one login.
type RedisStore struct {
	redis *redisclient.Client
	key   string
}

func NewRedisStore(redis *redisclient.Client, key string) *RedisStore {
	return &RedisStore{redis: redis, key: key}
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	raw, err := s.redis.LoadSessionField(ctx, s.key, fieldToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *RedisStore) Load(ctx context.Context) (*Session, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	sess := &Session{Token: token}

	raw, err := s.redis.LoadSessionField(ctx, s.key, fieldUser)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		var u models.User
		if err := json.Unmarshal(raw, &u); err == nil {
			sess.User = &u
		}
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if err := s.redis.SaveSessionField(ctx, s.key, fieldToken, []byte(sess.Token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return s.SaveUser(ctx, sess.User)
}

func (s *RedisStore) SaveUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.redis.ClearSession(ctx, s.key, fieldUser)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.redis.SaveSessionField(ctx, s.key, fieldUser, raw); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.redis.ClearSession(ctx, s.key, fieldToken, fieldUser)
}

func (s *RedisStore) LoadPreferences(ctx context.Context) (models.NotificationPreferences, error) {
	raw, err := s.redis.LoadSessionField(ctx, s.key, fieldPreferences)
	if err != nil {
		return models.DefaultNotificationPreferences(), err
	}
	if raw == nil {
		return models.DefaultNotificationPreferences(), nil
	}
	var p models.NotificationPreferences
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.DefaultNotificationPreferences(), nil
	}
	return p, nil
}

func (s *RedisStore) SavePreferences(ctx context.Context, p models.NotificationPreferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.redis.SaveSessionField(ctx, s.key, fieldPreferences, raw)
}

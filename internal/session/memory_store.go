package session

import (
	"context"
	"sync"

	"marketplace-storefront/internal/models"
)

// MemoryStore keeps the session for the life of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	sess  Session
	prefs *models.NotificationPreferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Token, nil
}

func (s *MemoryStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sess
	return &out, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = *sess
	return nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.User = u
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = Session{}
	return nil
}

func (s *MemoryStore) LoadPreferences(ctx context.Context) (models.NotificationPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		return models.DefaultNotificationPreferences(), nil
	}
	return *s.prefs, nil
}

func (s *MemoryStore) SavePreferences(ctx context.Context, p models.NotificationPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = &p
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"marketplace-storefront/internal/models"
)

type fileData struct {
	Token       string                          `json:"token,omitempty"`
	User        *models.User                    `json:"user,omitempty"`
	Preferences *models.NotificationPreferences `json:"notificationPreferences,omitempty"`
}

// FileStore keeps the session in one JSON file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var d fileData
	if err := json.Unmarshal(raw, &d); err != nil {
		// A corrupt file is an invalid session, not a fatal error.
		return &fileData{}, nil
	}
	return &d, nil
}

func (s *FileStore) write(d *fileData) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return "", err
	}
	return d.Token, nil
}

func (s *FileStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return nil, err
	}
	return &Session{Token: d.Token, User: d.User}, nil
}

func (s *FileStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return err
	}
	d.Token, d.User = sess.Token, sess.User
	return s.write(d)
}

func (s *FileStore) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return err
	}
	d.User = u
	return s.write(d)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return err
	}
	d.Token, d.User = "", nil
	return s.write(d)
}

func (s *FileStore) LoadPreferences(ctx context.Context) (models.NotificationPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return models.DefaultNotificationPreferences(), err
	}
	if d.Preferences == nil {
		return models.DefaultNotificationPreferences(), nil
	}
	return *d.Preferences, nil
}

func (s *FileStore) SavePreferences(ctx context.Context, p models.NotificationPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read()
	if err != nil {
		return err
	}
	d.Preferences = &p
	return s.write(d)
}

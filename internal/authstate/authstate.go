// Package authstate holds the process-wide session user. It is the only
// writer of that state; other components read it or call its actions.
package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/session"
	"marketplace-storefront/internal/util"

	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// AuthAPI is the subset of the auth service the manager needs.
type AuthAPI interface {
	Register(ctx context.Context, req *service.RegisterRequest) (*service.AuthResponse, error)
	Login(ctx context.Context, req *service.LoginRequest) (*service.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, req *service.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	DirectReset(ctx context.Context, req *service.DirectResetRequest) (string, error)
	Logout(ctx context.Context, token string) error
}

// State is a snapshot for rendering.
type State struct {
	User          *models.User `json:"user"`
	Authenticated bool         `json:"isAuthenticated"`
	Loading       bool         `json:"loading"`
}

type Manager struct {
	api    AuthAPI
	store  session.Store
	logger *zap.Logger

	mu          sync.RWMutex
	user        *models.User
	loading     bool
	initialized bool
	listeners   []func(State)

	logoutTimeout time.Duration
	now           func() time.Time
	pending       sync.WaitGroup
}

func NewManager(api AuthAPI, store session.Store) *Manager {
	return &Manager{
		api:           api,
		store:         store,
		logger:        util.GetLogger(),
		loading:       true,
		logoutTimeout: 5 * time.Second,
		now:           time.Now,
	}
}

// Subscribe registers fn to be called after every state change.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	var u *models.User
	if m.user != nil {
		copied := *m.user
		u = &copied
	}
	return State{User: u, Authenticated: m.user != nil, Loading: m.loading}
}

func (m *Manager) User() *models.User {
	return m.State().User
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) setUser(u *models.User) {
	m.mu.Lock()
	m.user = u
	m.loading = false
	state := m.stateLocked()
	listeners := append(([]func(State))(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Init hydrates the session from storage. It runs once; later calls are
// no-ops. Failures leave the user logged out with storage cleared.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true
	m.mu.Unlock()

	ctx, span := util.StartSpan(ctx, "Auth.Init")
	defer span.End()

	sess, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("Failed to load stored session", zap.Error(err))
		m.setUser(nil)
		return
	}
	if sess.Token == "" {
		m.setUser(nil)
		return
	}

	if session.TokenExpired(sess.Token, m.now()) {
		m.logger.Info("Stored token expired, clearing session")
		m.clearStore(ctx)
		m.setUser(nil)
		return
	}

	if sess.User != nil && sess.User.ID != "" {
		m.setUser(sess.User)
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Warn("Failed to fetch current user, clearing session", zap.Error(err))
		m.clearStore(ctx)
		m.setUser(nil)
		return
	}
	if err := m.store.SaveUser(ctx, user); err != nil {
		m.logger.Warn("Failed to cache current user", zap.Error(err))
	}
	m.setUser(user)
}

func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "Auth.Login")
	defer span.End()

	resp, err := m.api.Login(ctx, &service.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, resp)
}

func (m *Manager) Register(ctx context.Context, req *service.RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "Auth.Register")
	defer span.End()

	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, resp)
}

func (m *Manager) establish(ctx context.Context, resp *service.AuthResponse) (*models.User, error) {
	user := resp.User
	if err := m.store.Save(ctx, &session.Session{Token: resp.Token, User: &user}); err != nil {
		return nil, err
	}
	m.logger.Info("Session established", zap.String("user_id", user.ID))
	m.setUser(&user)
	return &user, nil
}

// Logout clears local state before returning. The server is told in the
// background with the token captured here; its result is only logged.
func (m *Manager) Logout(ctx context.Context) {
	token, err := m.store.Token(ctx)
	if err != nil {
		m.logger.Warn("Failed to read token for logout", zap.Error(err))
	}
	m.clearStore(ctx)
	m.setUser(nil)

	if token == "" {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		bg, cancel := context.WithTimeout(context.Background(), m.logoutTimeout)
		defer cancel()
		if err := m.api.Logout(bg, token); err != nil {
			m.logger.Warn("Server logout failed", zap.Error(err))
		}
	}()
}

// Wait blocks until background logout calls have finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// HandleUnauthorized resets state after the API client saw a 401. Storage
// has already been cleared by the client.
func (m *Manager) HandleUnauthorized() {
	if !m.IsAuthenticated() {
		return
	}
	m.logger.Info("Session rejected by server, logging out")
	m.setUser(nil)
}

// RefreshUser refetches the current user and updates the cached copy.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	if !m.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	user, err := m.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	m.UpdateUser(ctx, user)
	return user, nil
}

// UpdateUser replaces the cached user, e.g. after a profile edit.
func (m *Manager) UpdateUser(ctx context.Context, u *models.User) {
	if u == nil {
		return
	}
	if err := m.store.SaveUser(ctx, u); err != nil {
		m.logger.Warn("Failed to cache updated user", zap.Error(err))
	}
	m.setUser(u)
}

func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return m.api.ChangePassword(ctx, &service.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	return m.api.ForgotPassword(ctx, email)
}

func (m *Manager) DirectReset(ctx context.Context, email, password string) (string, error) {
	return m.api.DirectReset(ctx, &service.DirectResetRequest{Email: email, NewPassword: password})
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("Failed to clear stored session", zap.Error(err))
	}
}

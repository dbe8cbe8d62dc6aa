package authstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Register(ctx context.Context, req *service.RegisterRequest) (*service.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*service.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthAPI) Login(ctx context.Context, req *service.LoginRequest) (*service.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*service.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthAPI) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthAPI) ChangePassword(ctx context.Context, req *service.ChangePasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthAPI) ForgotPassword(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) DirectReset(ctx context.Context, req *service.DirectResetRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func expiredToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestInitWithoutToken(t *testing.T) {
	api := &mockAuthAPI{}
	m := NewManager(api, session.NewMemoryStore())

	assert.True(t, m.State().Loading)
	m.Init(context.Background())

	state := m.State()
	assert.False(t, state.Loading)
	assert.False(t, state.Authenticated)
	api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestInitUsesCachedUser(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "opaque", User: &models.User{ID: "u1", Name: "Ada"}}))

	api := &mockAuthAPI{}
	m := NewManager(api, store)
	m.Init(ctx)

	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "Ada", m.User().Name)
	api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestInitFetchesUserWhenNotCached(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "opaque"}))

	api := &mockAuthAPI{}
	api.On("Me", mock.Anything).Return(&models.User{ID: "u2"}, nil).Once()

	m := NewManager(api, store)
	m.Init(ctx)
	m.Init(ctx)

	assert.Equal(t, "u2", m.User().ID)
	sess, _ := store.Load(ctx)
	assert.Equal(t, "u2", sess.User.ID)
	api.AssertExpectations(t)
}

func TestInitClearsSessionWhenUserFetchFails(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "opaque"}))

	api := &mockAuthAPI{}
	api.On("Me", mock.Anything).Return(nil, errors.New("boom"))

	m := NewManager(api, store)
	m.Init(ctx)

	assert.False(t, m.IsAuthenticated())
	token, _ := store.Token(ctx)
	assert.Empty(t, token)
}

func TestInitClearsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: expiredToken(t), User: &models.User{ID: "u1"}}))

	api := &mockAuthAPI{}
	m := NewManager(api, store)
	m.Init(ctx)

	assert.False(t, m.IsAuthenticated())
	token, _ := store.Token(ctx)
	assert.Empty(t, token)
	api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestLoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	api := &mockAuthAPI{}
	api.On("Login", mock.Anything, &service.LoginRequest{Email: "ada@mavs.uta.edu", Password: "secret123"}).
		Return(&service.AuthResponse{Token: "tok", User: models.User{ID: "u1"}}, nil)

	var seen []State
	m := NewManager(api, store)
	m.Subscribe(func(s State) { seen = append(seen, s) })

	user, err := m.Login(ctx, "ada@mavs.uta.edu", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, m.IsAuthenticated())

	sess, _ := store.Load(ctx)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "u1", sess.User.ID)
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Authenticated)
}

func TestLoginFailureKeepsState(t *testing.T) {
	api := &mockAuthAPI{}
	api.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("Invalid credentials"))

	m := NewManager(api, session.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@mavs.uta.edu", "x")

	require.Error(t, err)
	assert.False(t, m.IsAuthenticated())
}

func TestLogoutClearsBeforeServerCall(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "tok", User: &models.User{ID: "u1"}}))

	release := make(chan struct{})
	api := &mockAuthAPI{}
	api.On("Logout", mock.Anything, "tok").
		WaitUntil(time.After(50 * time.Millisecond)).
		Run(func(mock.Arguments) { close(release) }).
		Return(errors.New("server down"))

	m := NewManager(api, store)
	m.Init(ctx)
	require.True(t, m.IsAuthenticated())

	m.Logout(ctx)

	assert.False(t, m.IsAuthenticated())
	token, _ := store.Token(ctx)
	assert.Empty(t, token)

	m.Wait()
	<-release
	api.AssertExpectations(t)
}

func TestHandleUnauthorized(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "tok", User: &models.User{ID: "u1"}}))

	m := NewManager(&mockAuthAPI{}, store)
	m.Init(ctx)
	m.HandleUnauthorized()

	assert.False(t, m.IsAuthenticated())
}

func TestChangePasswordRequiresSession(t *testing.T) {
	m := NewManager(&mockAuthAPI{}, session.NewMemoryStore())
	err := m.ChangePassword(context.Background(), "old", "new-password")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

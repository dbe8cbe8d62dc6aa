// Package session persists the client-side state that survives restarts:
// the bearer token, the cached user and notification preferences.
package session

import (
	"context"
	"time"

	"marketplace-storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the token/user pair written at login and register.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Store is implemented by FileStore and RedisStore. Clear drops token and
// user but keeps notification preferences.
type Store interface {
	Token(ctx context.Context) (string, error)
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	SaveUser(ctx context.Context, u *models.User) error
	Clear(ctx context.Context) error
	LoadPreferences(ctx context.Context) (models.NotificationPreferences, error)
	SavePreferences(ctx context.Context, p models.NotificationPreferences) error
}

// TokenExpired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked; the server stays the authority. Tokens that
// are not JWTs, or carry no exp, are never treated as expired.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

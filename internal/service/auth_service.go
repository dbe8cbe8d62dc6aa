package service

import (
	"context"
	"fmt"
	"net/http"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/util"
)

// AuthService maps /auth endpoints.
type AuthService struct{ base }

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type DirectResetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is the body of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("register response carried no token")
	}
	s.images.User(&resp.User)
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	s.images.User(&resp.User)
	return &resp, nil
}

// Me fetches the user owning the current token.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		models.User
		Wrapped *models.User `json:"user"`
	}
	if err := s.client.Get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	user := resp.User
	if resp.Wrapped != nil {
		user = *resp.Wrapped
	}
	s.images.User(&user)
	return &user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	return s.client.Put(ctx, "/auth/change-password", req, nil)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp MessageResponse
	if err := s.client.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *AuthService) DirectReset(ctx context.Context, req *DirectResetRequest) (string, error) {
	var resp MessageResponse
	if err := s.client.Post(ctx, "/auth/direct-reset", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout tells the server to drop token. The token is passed explicitly
// because local storage is already cleared when this runs.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.Logout")
	defer span.End()

	req := &apiclient.Request{Method: http.MethodPost, Path: "/auth/logout"}
	if token != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return s.client.Do(ctx, req, nil)
}

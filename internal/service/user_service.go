package service

import (
	"context"
	"net/http"
	"net/url"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
)

// UserService maps /users endpoints.
type UserService struct{ base }

type ProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	s.images.User(&user)
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, req *ProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.client.Put(ctx, "/users/profile", req, &user); err != nil {
		return nil, err
	}
	s.images.User(&user)
	return &user, nil
}

func (s *UserService) UploadAvatar(ctx context.Context, avatar apiclient.File) (*models.User, error) {
	avatar.Field = "avatar"
	var user models.User
	if err := s.client.Upload(ctx, http.MethodPost, "/users/avatar", nil, []apiclient.File{avatar}, &user); err != nil {
		return nil, err
	}
	s.images.User(&user)
	return &user, nil
}

func (s *UserService) Listings(ctx context.Context, userID string) ([]models.Product, error) {
	var products []models.Product
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(userID)+"/listings", nil, &products); err != nil {
		return nil, err
	}
	s.images.Products(products)
	return products, nil
}

func (s *UserService) Sales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := s.client.Get(ctx, "/users/sales", nil, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/users/"+url.PathEscape(id), nil)
}

// List returns every user; admin only.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.client.Get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		s.images.User(&users[i])
	}
	return users, nil
}

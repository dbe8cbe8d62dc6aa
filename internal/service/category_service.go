package service

import (
	"context"
	"net/url"
	"strconv"

	"marketplace-storefront/internal/models"
)

// CategoryService maps /categories endpoints.
type CategoryService struct{ base }

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.client.Get(ctx, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := s.client.Get(ctx, "/categories/"+url.PathEscape(id), nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoryService) ProductCounts(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.client.Get(ctx, "/categories/product-counts", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *CategoryService) Popular(ctx context.Context, limit int) ([]models.Category, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var cats []models.Category
	if err := s.client.Get(ctx, "/categories/popular", query, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	var cat models.Category
	if err := s.client.Post(ctx, "/categories", req, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, req *CategoryRequest) (*models.Category, error) {
	var cat models.Category
	if err := s.client.Put(ctx, "/categories/"+url.PathEscape(id), req, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/categories/"+url.PathEscape(id), nil)
}

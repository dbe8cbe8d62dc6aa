package service

import (
	"context"
	"net/url"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
)

// ReviewService maps /reviews endpoints.
type ReviewService struct{ base }

type ReviewRequest struct {
	ProductID string `json:"productId,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *ReviewService) Create(ctx context.Context, req *ReviewRequest) (*models.Review, error) {
	var review models.Review
	if err := s.client.Post(ctx, "/reviews", req, &review); err != nil {
		return nil, err
	}
	s.images.User(review.Reviewer)
	return &review, nil
}

func (s *ReviewService) BySeller(ctx context.Context, sellerID string) ([]models.Review, error) {
	return s.list(ctx, "/reviews/seller/"+url.PathEscape(sellerID))
}

func (s *ReviewService) ByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	return s.list(ctx, "/reviews/product/"+url.PathEscape(productID))
}

func (s *ReviewService) list(ctx context.Context, path string) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.client.Get(ctx, path, nil, &reviews); err != nil {
		return nil, err
	}
	for i := range reviews {
		s.images.User(reviews[i].Reviewer)
	}
	return reviews, nil
}

func (s *ReviewService) Update(ctx context.Context, id string, req *ReviewRequest) (*models.Review, error) {
	var review models.Review
	if err := s.client.Put(ctx, "/reviews/"+url.PathEscape(id), req, &review); err != nil {
		return nil, err
	}
	s.images.User(review.Reviewer)
	return &review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/reviews/"+url.PathEscape(id), nil)
}

func (s *ReviewService) Eligibility(ctx context.Context, productID string) (*models.ReviewEligibility, error) {
	var e models.ReviewEligibility
	if err := s.client.Get(ctx, "/reviews/eligibility/"+url.PathEscape(productID), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Mine returns the current user's review of productID, or nil when there
// is none.
func (s *ReviewService) Mine(ctx context.Context, productID string) (*models.Review, error) {
	var review *models.Review
	err := s.client.Get(ctx, "/reviews/product/"+url.PathEscape(productID)+"/mine", nil, &review)
	if apiclient.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if review != nil && review.ID == "" {
		return nil, nil
	}
	return review, nil
}

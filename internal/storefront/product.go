package storefront

import (
	"context"
	"strings"
	"time"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ProductView struct {
	Product     *models.Product           `json:"product,omitempty"`
	Reviews     []models.Review           `json:"reviews"`
	MyReview    *models.Review            `json:"myReview,omitempty"`
	Eligibility *models.ReviewEligibility `json:"eligibility,omitempty"`
	Reported    bool                      `json:"reported"`
	IsOwner     bool                      `json:"isOwner"`
	Status
}

// ProductDetail loads a product, retrying the fetch automatically before
// surfacing an error. Reviews and the per-user extras are best effort.
func (s *Storefront) ProductDetail(ctx context.Context, id string) ProductView {
	ctx, span := util.StartSpan(ctx, "Storefront.ProductDetail")
	defer span.End()

	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return ProductView{Status: s.fail(err, "Failed to load product", "Failed to load product")}
	}

	view := ProductView{Product: product}
	if user := s.user(); user != nil && product.Seller != nil {
		view.IsOwner = product.Seller.ID == user.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := s.services.Reviews.ByProduct(gctx, id)
		if err != nil {
			s.logger.Warn("Failed to load reviews", zap.String("product_id", id), zap.Error(err))
			return nil
		}
		view.Reviews = reviews
		return nil
	})
	if s.user() != nil {
		g.Go(func() error {
			mine, err := s.services.Reviews.Mine(gctx, id)
			if err != nil {
				s.logger.Warn("Failed to load own review", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			view.MyReview = mine
			return nil
		})
		g.Go(func() error {
			e, err := s.services.Reviews.Eligibility(gctx, id)
			if err != nil {
				s.logger.Warn("Failed to check review eligibility", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			view.Eligibility = e
			return nil
		})
		g.Go(func() error {
			reported, err := s.services.Reports.Check(gctx, "product", id)
			if err != nil {
				s.logger.Warn("Failed to check report state", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			view.Reported = reported
			return nil
		})
	}
	g.Wait()

	if view.Reviews == nil {
		view.Reviews = []models.Review{}
	}
	return view
}

func (s *Storefront) loadProduct(ctx context.Context, id string) (*models.Product, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.ProductRetries; attempt++ {
		if attempt > 0 {
			util.ProductLoadRetriesTotal.Inc()
			s.logger.Info("Retrying product load", zap.String("product_id", id), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}
		product, err := s.services.Products.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if apiclient.IsNotFound(err) || apiclient.IsUnauthorized(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// AddToCart adds quantity of a product and refreshes the badge count.
func (s *Storefront) AddToCart(ctx context.Context, productID string, quantity int) Result {
	ctx, span := util.StartSpan(ctx, "Storefront.AddToCart")
	defer span.End()

	if quantity < 1 {
		quantity = 1
	}
	if _, err := s.services.Cart.AddItem(ctx, productID, quantity); err != nil {
		util.CartMutationsTotal.WithLabelValues("add", "failed").Inc()
		return Result{Status: s.fail(err, "Failed to add item to cart", "Failed to add item to cart")}
	}
	util.CartMutationsTotal.WithLabelValues("add", "committed").Inc()
	s.counter.Refresh(ctx)
	return Result{Message: "Added to cart"}
}

// CanSubmitReview mirrors the disabled state of the review button.
func CanSubmitReview(rating int, comment string) bool {
	return rating >= 1 && rating <= 5 && strings.TrimSpace(comment) != ""
}

type ReviewResult struct {
	Result
	Review *models.Review `json:"review,omitempty"`
}

// SubmitReview creates a review, or updates reviewID when it is set.
func (s *Storefront) SubmitReview(ctx context.Context, productID, reviewID string, form *validation.ReviewForm) ReviewResult {
	if errs := s.validator.Review(form); !errs.Empty() {
		return ReviewResult{Result: invalid(errs)}
	}

	req := &service.ReviewRequest{ProductID: productID, Rating: form.Rating, Comment: strings.TrimSpace(form.Comment)}
	var review *models.Review
	var err error
	if reviewID == "" {
		review, err = s.services.Reviews.Create(ctx, req)
	} else {
		review, err = s.services.Reviews.Update(ctx, reviewID, req)
	}
	if err != nil {
		return ReviewResult{Result: Result{Status: s.fail(err, "Failed to submit review", "Failed to submit review")}}
	}

	if reviewID == "" {
		s.activity.ReviewSubmitted(ctx, s.userID(), review)
	}
	return ReviewResult{Result: Result{Message: "Review saved"}, Review: review}
}

func (s *Storefront) DeleteReview(ctx context.Context, id string) Result {
	if err := s.services.Reviews.Delete(ctx, id); err != nil {
		return Result{Status: s.fail(err, "Failed to delete review", "Failed to delete review")}
	}
	return Result{Message: "Review deleted"}
}

// Report files a report on a product, user or review.
func (s *Storefront) Report(ctx context.Context, form *validation.ReportForm) Result {
	if errs := s.validator.Report(form); !errs.Empty() {
		return invalid(errs)
	}
	report, err := s.services.Reports.Create(ctx, &service.ReportRequest{
		Type:        form.Type,
		ItemID:      form.ItemID,
		Reason:      strings.TrimSpace(form.Reason),
		Description: strings.TrimSpace(form.Description),
	})
	if err != nil {
		return Result{Status: s.fail(err, "Failed to submit report", "Failed to submit report")}
	}
	s.activity.ReportFiled(ctx, s.userID(), report)
	return Result{Message: "Report submitted"}
}

type SellerView struct {
	Seller   *models.User     `json:"seller,omitempty"`
	Listings []models.Product `json:"listings"`
	Reviews  []models.Review  `json:"reviews"`
	Status
}

// Seller loads a public seller profile with listings and reviews.
func (s *Storefront) Seller(ctx context.Context, id string) SellerView {
	var view SellerView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Seller, err = s.services.Users.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		view.Listings, err = s.services.Users.Listings(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		view.Reviews, err = s.services.Reviews.BySeller(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return SellerView{Status: s.fail(err, "Failed to load seller profile", "Failed to load seller profile")}
	}
	return view
}

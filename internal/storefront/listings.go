package storefront

import (
	"context"
	"strings"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"
	"marketplace-storefront/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ListingsView struct {
	Listings []models.Product `json:"listings"`
	Sales    []models.Sale    `json:"sales"`
	Status
}

type ListingResult struct {
	Result
	Product *models.Product `json:"product,omitempty"`
}

// MyListings loads the seller dashboard: own listings and sales history.
func (s *Storefront) MyListings(ctx context.Context) ListingsView {
	ctx, span := util.StartSpan(ctx, "Storefront.MyListings")
	defer span.End()

	user := s.user()
	if user == nil {
		return ListingsView{Status: Status{Unauthorized: true}}
	}

	var view ListingsView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Listings, err = s.services.Users.Listings(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		view.Sales, err = s.services.Users.Sales(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListingsView{Status: s.fail(err, "Failed to load your listings", "Failed to load listings")}
	}
	return view
}

func listingRequest(form *validation.ListingForm) (*service.ListingRequest, error) {
	price, err := validation.ListingPrice(form.Price)
	if err != nil {
		return nil, err
	}
	specs := make([]models.Specification, 0, len(form.Specifications))
	for _, spec := range form.Specifications {
		specs = append(specs, models.Specification{
			ID:    spec.ID,
			Name:  strings.TrimSpace(spec.Name),
			Value: strings.TrimSpace(spec.Value),
		})
	}
	return &service.ListingRequest{
		Name:           strings.TrimSpace(form.Name),
		Description:    strings.TrimSpace(form.Description),
		Price:          price.Round(2),
		Category:       form.Category,
		Condition:      form.Condition,
		Specifications: specs,
	}, nil
}

// CreateListing validates the form and posts it with its images.
func (s *Storefront) CreateListing(ctx context.Context, form *validation.ListingForm, images []apiclient.File) ListingResult {
	ctx, span := util.StartSpan(ctx, "Storefront.CreateListing")
	defer span.End()

	form.ImageCount = len(images)
	if errs := s.validator.Listing(form, true); !errs.Empty() {
		return ListingResult{Result: invalid(errs)}
	}
	req, err := listingRequest(form)
	if err != nil {
		return ListingResult{Result: invalid(validation.FieldErrors{"price": "Price must be a positive number"})}
	}

	product, err := s.services.Products.Create(ctx, req, images)
	if err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to create listing", "Failed to create listing")}}
	}
	s.logger.Info("Listing created", zap.String("product_id", product.ID))
	s.activity.ListingCreated(ctx, s.userID(), product)
	return ListingResult{Result: Result{Message: "Listing created"}, Product: product}
}

// UpdateListing saves the editable fields. Images are managed separately.
func (s *Storefront) UpdateListing(ctx context.Context, id string, form *validation.ListingForm) ListingResult {
	if errs := s.validator.Listing(form, false); !errs.Empty() {
		return ListingResult{Result: invalid(errs)}
	}
	req, err := listingRequest(form)
	if err != nil {
		return ListingResult{Result: invalid(validation.FieldErrors{"price": "Price must be a positive number"})}
	}
	product, err := s.services.Products.Update(ctx, id, req)
	if err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to update listing", "Failed to update listing")}}
	}
	return ListingResult{Result: Result{Message: "Listing updated"}, Product: product}
}

func (s *Storefront) DeleteListing(ctx context.Context, id string) Result {
	if err := s.services.Products.Delete(ctx, id); err != nil {
		return Result{Status: s.fail(err, "Failed to delete listing", "Failed to delete listing")}
	}
	return Result{Message: "Listing deleted"}
}

func (s *Storefront) UploadListingImages(ctx context.Context, id string, images []apiclient.File) ListingResult {
	if len(images) == 0 {
		return ListingResult{Result: invalid(validation.FieldErrors{"images": "Please add at least one image"})}
	}
	product, err := s.services.Products.UploadImages(ctx, id, images)
	if err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to upload images", "Failed to upload images")}}
	}
	return ListingResult{Product: product}
}

// RemoveListingImage deletes an image and returns the listing as stored.
func (s *Storefront) RemoveListingImage(ctx context.Context, id, imageID string) ListingResult {
	if err := s.services.Products.RemoveImage(ctx, id, imageID); err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to remove image", "Failed to remove image")}}
	}
	return s.reloadListing(ctx, id)
}

// SetMainImage flags imageID as the main image. The returned listing has
// exactly one main image even if the server response lags.
func (s *Storefront) SetMainImage(ctx context.Context, id, imageID string) ListingResult {
	if err := s.services.Products.SetMainImage(ctx, id, imageID); err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to set main image", "Failed to set main image")}}
	}
	res := s.reloadListing(ctx, id)
	if res.Product != nil {
		markMain(res.Product, imageID)
	}
	return res
}

func markMain(p *models.Product, imageID string) {
	found := false
	for _, img := range p.Images {
		if img.ID == imageID {
			found = true
		}
	}
	if !found {
		return
	}
	for i := range p.Images {
		p.Images[i].IsMain = p.Images[i].ID == imageID
	}
}

func (s *Storefront) AddSpecification(ctx context.Context, id string, spec models.Specification) ListingResult {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Value = strings.TrimSpace(spec.Value)
	if spec.Name == "" || spec.Value == "" {
		return ListingResult{Result: invalid(validation.FieldErrors{"specification": "Specification name and value are required"})}
	}
	if _, err := s.services.Products.AddSpecification(ctx, id, spec); err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to add specification", "Failed to add specification")}}
	}
	return s.reloadListing(ctx, id)
}

func (s *Storefront) UpdateSpecification(ctx context.Context, id, specID string, spec models.Specification) ListingResult {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Value = strings.TrimSpace(spec.Value)
	if spec.Name == "" || spec.Value == "" {
		return ListingResult{Result: invalid(validation.FieldErrors{"specification": "Specification name and value are required"})}
	}
	if err := s.services.Products.UpdateSpecification(ctx, id, specID, spec); err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to update specification", "Failed to update specification")}}
	}
	return s.reloadListing(ctx, id)
}

func (s *Storefront) RemoveSpecification(ctx context.Context, id, specID string) ListingResult {
	if err := s.services.Products.RemoveSpecification(ctx, id, specID); err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to remove specification", "Failed to remove specification")}}
	}
	return s.reloadListing(ctx, id)
}

func (s *Storefront) reloadListing(ctx context.Context, id string) ListingResult {
	product, err := s.services.Products.Get(ctx, id)
	if err != nil {
		return ListingResult{Result: Result{Status: s.fail(err, "Failed to reload listing", "Failed to reload listing")}}
	}
	return ListingResult{Product: product}
}

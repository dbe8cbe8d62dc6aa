package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"

	"github.com/shopspring/decimal"
)

// ProductService maps /products endpoints.
type ProductService struct{ base }

// ProductFilter is the query of the product list endpoint. Zero values are
// left out of the query string.
type ProductFilter struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	MinPrice string `json:"minPrice,omitempty"`
	MaxPrice string `json:"maxPrice,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Status   string `json:"status,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (f ProductFilter) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("sort", f.Sort)
	set("status", f.Status)
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// ListingRequest is the editable part of a listing.
type ListingRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category"`
	Condition      string                 `json:"condition"`
	Specifications []models.Specification `json:"specifications,omitempty"`
}

func (r *ListingRequest) fields() (map[string]string, error) {
	fields := map[string]string{
		"name":        r.Name,
		"description": r.Description,
		"price":       r.Price.StringFixed(2),
		"category":    r.Category,
		"condition":   r.Condition,
	}
	if len(r.Specifications) > 0 {
		specs, err := json.Marshal(r.Specifications)
		if err != nil {
			return nil, fmt.Errorf("failed to encode specifications: %w", err)
		}
		fields["specifications"] = string(specs)
	}
	return fields, nil
}

func (s *ProductService) List(ctx context.Context, filter ProductFilter) (*models.ProductPage, error) {
	var page models.ProductPage
	if err := s.client.Get(ctx, "/products", filter.Values(), &page); err != nil {
		return nil, err
	}
	if page.Page == 0 {
		page.Page = max(filter.Page, 1)
	}
	if page.TotalPages == 0 && len(page.Products) > 0 {
		page.TotalPages = 1
	}
	s.images.Products(page.Products)
	return &page, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.client.Get(ctx, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	s.images.Product(&product)
	return &product, nil
}

// Create posts a new listing as multipart with its images.
func (s *ProductService) Create(ctx context.Context, req *ListingRequest, images []apiclient.File) (*models.Product, error) {
	fields, err := req.fields()
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].Field = "images"
	}

	var product models.Product
	if err := s.client.Upload(ctx, http.MethodPost, "/products", fields, images, &product); err != nil {
		return nil, err
	}
	s.images.Product(&product)
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req *ListingRequest) (*models.Product, error) {
	var product models.Product
	if err := s.client.Put(ctx, "/products/"+url.PathEscape(id), req, &product); err != nil {
		return nil, err
	}
	s.images.Product(&product)
	return &product, nil
}

// UpdateStatus is used by admin moderation (approve/reject).
func (s *ProductService) UpdateStatus(ctx context.Context, id, status string) error {
	return s.client.Put(ctx, "/products/"+url.PathEscape(id), map[string]string{"status": status}, nil)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/products/"+url.PathEscape(id), nil)
}

// UploadImages adds images to an existing listing and returns its new state.
func (s *ProductService) UploadImages(ctx context.Context, id string, images []apiclient.File) (*models.Product, error) {
	for i := range images {
		images[i].Field = "images"
	}
	var product models.Product
	if err := s.client.Upload(ctx, http.MethodPost, "/products/"+url.PathEscape(id)+"/images", nil, images, &product); err != nil {
		return nil, err
	}
	s.images.Product(&product)
	return &product, nil
}

func (s *ProductService) RemoveImage(ctx context.Context, id, imageID string) error {
	return s.client.Delete(ctx, "/products/"+url.PathEscape(id)+"/images/"+url.PathEscape(imageID), nil)
}

// SetMainImage asks the server to flag imageID main and unflag the rest.
func (s *ProductService) SetMainImage(ctx context.Context, id, imageID string) error {
	return s.client.Put(ctx, "/products/"+url.PathEscape(id)+"/images/"+url.PathEscape(imageID)+"/main", nil, nil)
}

func (s *ProductService) AddSpecification(ctx context.Context, id string, spec models.Specification) (*models.Specification, error) {
	var out models.Specification
	if err := s.client.Post(ctx, "/products/"+url.PathEscape(id)+"/specifications", spec, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out = spec
	}
	return &out, nil
}

func (s *ProductService) UpdateSpecification(ctx context.Context, id, specID string, spec models.Specification) error {
	return s.client.Put(ctx, "/products/"+url.PathEscape(id)+"/specifications/"+url.PathEscape(specID), spec, nil)
}

func (s *ProductService) RemoveSpecification(ctx context.Context, id, specID string) error {
	return s.client.Delete(ctx, "/products/"+url.PathEscape(id)+"/specifications/"+url.PathEscape(specID), nil)
}

func (s *ProductService) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	return s.listing(ctx, "/products/featured", limit)
}

func (s *ProductService) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	return s.listing(ctx, "/products/recent", limit)
}

func (s *ProductService) listing(ctx context.Context, path string, limit int) ([]models.Product, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var products []models.Product
	if err := s.client.Get(ctx, path, query, &products); err != nil {
		return nil, err
	}
	s.images.Products(products)
	return products, nil
}

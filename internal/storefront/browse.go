package storefront

import (
	"context"
	"fmt"
	"sync"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/util"

	"go.uber.org/zap"
)

type productLister interface {
	List(ctx context.Context, filter service.ProductFilter) (*models.ProductPage, error)
}

type categoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

type BrowseView struct {
	Filter     service.ProductFilter `json:"filter"`
	Products   []models.Product      `json:"products"`
	Categories []models.Category     `json:"categories"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"totalPages"`
	Loading    bool                  `json:"loading"`
	Status
}

// Browse keeps the product search state between requests. Changing any
// filter goes back to page 1.
type Browse struct {
	products   productLister
	categories categoryLister
	logger     *zap.Logger

	mu     sync.Mutex
	filter service.ProductFilter
	view   BrowseView
	seq    uint64
}

func newBrowse(products productLister, categories categoryLister, pageSize int) *Browse {
	b := &Browse{
		products:   products,
		categories: categories,
		logger:     util.GetLogger(),
		filter:     service.ProductFilter{Page: 1, Limit: pageSize},
	}
	b.view.Filter = b.filter
	return b
}

func (b *Browse) View() BrowseView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// SetFilter changes one filter value and reloads from page 1.
func (b *Browse) SetFilter(ctx context.Context, name, value string) (BrowseView, error) {
	b.mu.Lock()
	f := b.filter
	switch name {
	case "search":
		f.Search = value
	case "category":
		f.Category = value
	case "minPrice":
		f.MinPrice = value
	case "maxPrice":
		f.MaxPrice = value
	case "sort":
		f.Sort = value
	default:
		b.mu.Unlock()
		return b.View(), fmt.Errorf("unknown filter %q", name)
	}
	f.Page = 1
	b.filter = f
	b.mu.Unlock()
	return b.Load(ctx), nil
}

// ResetFilters clears every filter.
func (b *Browse) ResetFilters(ctx context.Context) BrowseView {
	b.mu.Lock()
	b.filter = service.ProductFilter{Page: 1, Limit: b.filter.Limit}
	b.mu.Unlock()
	return b.Load(ctx)
}

func (b *Browse) SetPage(ctx context.Context, page int) BrowseView {
	b.mu.Lock()
	if page < 1 {
		page = 1
	}
	if b.view.TotalPages > 0 && page > b.view.TotalPages {
		page = b.view.TotalPages
	}
	b.filter.Page = page
	b.mu.Unlock()
	return b.Load(ctx)
}

// Load fetches the current page. A response for an older filter is
// discarded.
func (b *Browse) Load(ctx context.Context) BrowseView {
	ctx, span := util.StartSpan(ctx, "Browse.Load")
	defer span.End()

	b.mu.Lock()
	b.seq++
	seq := b.seq
	filter := b.filter
	needCategories := b.view.Categories == nil
	b.view.Filter = filter
	b.view.Loading = true
	b.mu.Unlock()

	page, err := b.products.List(ctx, filter)

	var categories []models.Category
	if err == nil && needCategories {
		var cerr error
		if categories, cerr = b.categories.List(ctx); cerr != nil {
			b.logger.Warn("Failed to load categories", zap.Error(cerr))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		return b.view
	}
	b.view.Loading = false
	if err != nil {
		b.logger.Error("Failed to load products", zap.Error(err))
		b.view.Status = failure(err, "Failed to load products")
		b.view.Products = nil
		b.view.Total = 0
		b.view.TotalPages = 0
		return b.view
	}
	b.view.Status = Status{}
	b.view.Products = page.Products
	b.view.Total = page.Total
	b.view.Page = page.Page
	b.view.TotalPages = page.TotalPages
	if categories != nil {
		b.view.Categories = categories
	}
	return b.view
}

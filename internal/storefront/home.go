package storefront

import (
	"context"

	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/util"

	"golang.org/x/sync/errgroup"
)

const homeFeaturedLimit = 8

type HomeView struct {
	Featured   []models.Product  `json:"featured"`
	Categories []models.Category `json:"categories"`
	Status
}

// Home loads featured products and categories in parallel. If either call
// fails the page shows a single error and nothing else.
func (s *Storefront) Home(ctx context.Context) HomeView {
	ctx, span := util.StartSpan(ctx, "Storefront.Home")
	defer span.End()

	var featured []models.Product
	var categories []models.Category

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		featured, err = s.services.Products.Featured(gctx, homeFeaturedLimit)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.services.Categories.List(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		st := s.fail(err, "Failed to load products", "Failed to load home page")
		st.Error = "Failed to load products"
		return HomeView{Status: st}
	}
	return HomeView{Featured: featured, Categories: categories}
}

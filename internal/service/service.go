package service

import (
	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/imageurl"
	"marketplace-storefront/internal/util"

	"go.uber.org/zap"
)

// Services bundles one service module per REST resource.
type Services struct {
	Auth       *AuthService
	Products   *ProductService
	Cart       *CartService
	Orders     *OrderService
	Messages   *MessageService
	Categories *CategoryService
	Reviews    *ReviewService
	Reports    *ReportService
	Users      *UserService
	Contact    *ContactService
}

// New creates all service modules over one API client. Image paths in
// responses are resolved with images before they are returned.
func New(client *apiclient.Client, images imageurl.Resolver) *Services {
	b := base{client: client, images: images, logger: util.GetLogger()}
	return &Services{
		Auth:       &AuthService{b},
		Products:   &ProductService{b},
		Cart:       &CartService{b},
		Orders:     &OrderService{b},
		Messages:   &MessageService{b},
		Categories: &CategoryService{b},
		Reviews:    &ReviewService{b},
		Reports:    &ReportService{b},
		Users:      &UserService{b},
		Contact:    &ContactService{b},
	}
}

type base struct {
	client *apiclient.Client
	images imageurl.Resolver
	logger *zap.Logger
}

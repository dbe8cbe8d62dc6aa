package service

import (
	"context"
	"net/url"

	"marketplace-storefront/internal/models"

	"github.com/shopspring/decimal"
)

// CartService maps /cart endpoints. Mutations return the server's cart when
// the response carries one, nil otherwise.
type CartService struct{ base }

// cartBody accepts a bare cart or {"cart": {...}}; anything without totals
// is treated as "no cart in response".
type cartBody struct {
	Items      []models.CartItem `json:"items"`
	Subtotal   *decimal.Decimal  `json:"subtotal"`
	ServiceFee *decimal.Decimal  `json:"serviceFee"`
	Total      *decimal.Decimal  `json:"total"`
	Cart       *models.Cart      `json:"cart"`
}

func (b *cartBody) cart() *models.Cart {
	if b.Cart != nil {
		return b.Cart
	}
	if b.Subtotal == nil && b.Total == nil {
		return nil
	}
	c := &models.Cart{Items: b.Items}
	if b.Subtotal != nil {
		c.Subtotal = *b.Subtotal
	}
	if b.ServiceFee != nil {
		c.ServiceFee = *b.ServiceFee
	}
	if b.Total != nil {
		c.Total = *b.Total
	}
	return c
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (s *CartService) Get(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := s.client.Get(ctx, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	s.images.Cart(&cart)
	return &cart, nil
}

func (s *CartService) AddItem(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	var body cartBody
	if err := s.client.Post(ctx, "/cart/items", addItemRequest{ProductID: productID, Quantity: quantity}, &body); err != nil {
		return nil, err
	}
	cart := body.cart()
	s.images.Cart(cart)
	return cart, nil
}

func (s *CartService) UpdateItem(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	var body cartBody
	if err := s.client.Put(ctx, "/cart/items/"+url.PathEscape(productID), map[string]int{"quantity": quantity}, &body); err != nil {
		return nil, err
	}
	cart := body.cart()
	s.images.Cart(cart)
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, productID string) (*models.Cart, error) {
	var body cartBody
	if err := s.client.Delete(ctx, "/cart/items/"+url.PathEscape(productID), &body); err != nil {
		return nil, err
	}
	cart := body.cart()
	s.images.Cart(cart)
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context) (*models.Cart, error) {
	var body cartBody
	if err := s.client.Delete(ctx, "/cart", &body); err != nil {
		return nil, err
	}
	return body.cart(), nil
}

func (s *CartService) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := s.client.Get(ctx, "/cart/count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (s *CartService) Validate(ctx context.Context) (*models.CartValidation, error) {
	var v models.CartValidation
	if err := s.client.Get(ctx, "/cart/validate", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService maps /orders endpoints. Every order it returns has been
// passed through FormatOrder.
type OrderService struct{ base }

// CreateOrderRequest creates an order from the current cart.
type CreateOrderRequest struct {
	Delivery      models.DeliveryInfo `json:"deliveryInfo"`
	PaymentMethod string              `json:"paymentMethod"`
}

// CheckoutRequest settles a credit order. Card digits never leave the
// client; PaymentMethodID is an opaque reference.
type CheckoutRequest struct {
	OrderID         string `json:"orderId"`
	PaymentMethodID string `json:"paymentMethodId"`
	CardBrand       string `json:"cardBrand,omitempty"`
	Last4           string `json:"last4,omitempty"`
}

type CheckoutResponse struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
}

// Create posts a new order. A non-empty idempotencyKey is sent as the
// Idempotency-Key header so a resubmission returns the same order.
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest, idempotencyKey string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Create")
	defer span.End()

	call := &apiclient.Request{Method: http.MethodPost, Path: "/orders", Body: req}
	if idempotencyKey != "" {
		call.Headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var order models.Order
	if err := s.client.Do(ctx, call, &order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("idempotency_key", idempotencyKey))
	return s.format(&order), nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.client.Get(ctx, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		s.format(&orders[i])
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.client.Get(ctx, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return s.format(&order), nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	return s.client.Put(ctx, "/orders/"+url.PathEscape(id)+"/payment-status", map[string]string{"paymentStatus": status}, nil)
}

func (s *OrderService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	var resp CheckoutResponse
	if err := s.client.Post(ctx, "/orders/checkout", req, &resp); err != nil {
		return nil, err
	}
	if resp.OrderID == "" {
		resp.OrderID = req.OrderID
	}
	return &resp, nil
}

func (s *OrderService) Cancel(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.client.Put(ctx, "/orders/"+url.PathEscape(id)+"/cancel", nil, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		order.ID = id
		order.Status = models.OrderStatusCancelled
	}
	return s.format(&order), nil
}

func (s *OrderService) format(o *models.Order) *models.Order {
	FormatOrder(o)
	s.images.Order(o)
	return o
}

// FormatOrder fills the client-side display fields: item count, a display
// status, and the total when the server left it out.
func FormatOrder(o *models.Order) *models.Order {
	if o == nil {
		return nil
	}

	count := 0
	itemsTotal := decimal.Zero
	for _, item := range o.Items {
		count += item.Quantity
		itemsTotal = itemsTotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	o.ItemCount = count

	if o.Subtotal.IsZero() {
		o.Subtotal = itemsTotal
	}
	if o.Total.IsZero() {
		o.Total = o.Subtotal.Add(o.ServiceFee)
	}

	o.DisplayStatus = displayStatus(o.Status)
	return o
}

func displayStatus(status string) string {
	switch strings.ToLower(status) {
	case "", models.OrderStatusPending:
		return "Pending"
	case models.OrderStatusProcessing:
		return "Processing"
	case models.OrderStatusCompleted:
		return "Completed"
	case models.OrderStatusCancelled, "canceled":
		return "Cancelled"
	}
	return strings.ToUpper(status[:1]) + strings.ToLower(status[1:])
}

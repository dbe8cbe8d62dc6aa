package storefront

import (
	"context"

	"marketplace-storefront/internal/models"
)

type OrdersView struct {
	Orders []models.Order `json:"orders"`
	Status
}

type OrderView struct {
	Order     *models.Order `json:"order,omitempty"`
	CanCancel bool          `json:"canCancel"`
	Status
}

func (s *Storefront) Orders(ctx context.Context) OrdersView {
	orders, err := s.services.Orders.List(ctx)
	if err != nil {
		return OrdersView{Status: s.fail(err, "Failed to load orders", "Failed to load orders")}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return OrdersView{Orders: orders}
}

func (s *Storefront) Order(ctx context.Context, id string) OrderView {
	order, err := s.services.Orders.Get(ctx, id)
	if err != nil {
		return OrderView{Status: s.fail(err, "Order not found", "Failed to load order")}
	}
	return OrderView{Order: order, CanCancel: cancellable(order)}
}

// CancelOrder cancels a pending order.
func (s *Storefront) CancelOrder(ctx context.Context, id string) OrderView {
	order, err := s.services.Orders.Cancel(ctx, id)
	if err != nil {
		return OrderView{Status: s.fail(err, "Failed to cancel order", "Failed to cancel order")}
	}
	return OrderView{Order: order}
}

func cancellable(o *models.Order) bool {
	return o.Status == "" || o.Status == models.OrderStatusPending
}

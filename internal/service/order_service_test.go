package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/imageurl"
	"marketplace-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T, handler http.HandlerFunc) *Services {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := apiclient.NewClient(srv.URL+"/api", time.Second)
	return New(client, imageurl.Resolver{Base: "http://assets", Placeholder: "/placeholder.png"})
}

func TestFormatOrder(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{Quantity: 2, Price: decimal.RequireFromString("10.50")},
			{Quantity: 1, Price: decimal.RequireFromString("4.00")},
		},
		ServiceFee: decimal.RequireFromString("1.25"),
		Status:     "processing",
	}

	FormatOrder(order)

	assert.Equal(t, 3, order.ItemCount)
	assert.True(t, decimal.RequireFromString("25.00").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("26.25").Equal(order.Total))
	assert.Equal(t, "Processing", order.DisplayStatus)
}

func TestFormatOrderKeepsServerTotal(t *testing.T) {
	order := &models.Order{
		Items:    []models.OrderItem{{Quantity: 1, Price: decimal.NewFromInt(5)}},
		Subtotal: decimal.NewFromInt(5),
		Total:    decimal.NewFromInt(7),
	}

	FormatOrder(order)

	assert.True(t, decimal.NewFromInt(7).Equal(order.Total))
	assert.Equal(t, "Pending", order.DisplayStatus)
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "Cancelled", displayStatus("canceled"))
	assert.Equal(t, "Completed", displayStatus("COMPLETED"))
	assert.Equal(t, "Shipped", displayStatus("shipped"))
}

func TestOrderCreateSendsIdempotencyKey(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))

		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.PaymentCash, body.PaymentMethod)
		assert.Equal(t, "Ada", body.Delivery.FullName)

		w.Write([]byte(`{"id":"o-1","status":"pending","items":[{"productId":"p","quantity":2,"price":"3.00","image":"x.jpg"}]}`))
	})

	order, err := svc.Orders.Create(context.Background(), &CreateOrderRequest{
		Delivery:      models.DeliveryInfo{FullName: "Ada"},
		PaymentMethod: models.PaymentCash,
	}, "idem-1")

	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
	assert.Equal(t, 2, order.ItemCount)
	assert.True(t, decimal.NewFromInt(6).Equal(order.Total))
	assert.Equal(t, "http://assets/uploads/x.jpg", order.Items[0].Image)
}

func TestOrderCancelWithoutBody(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/orders/o-9/cancel", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	order, err := svc.Orders.Cancel(context.Background(), "o-9")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", order.DisplayStatus)
}

func TestProductFilterValues(t *testing.T) {
	f := ProductFilter{Search: "desk", Category: "furniture", MaxPrice: "50", Sort: "price_asc", Page: 2, Limit: 12}
	v := f.Values()

	assert.Equal(t, "desk", v.Get("search"))
	assert.Equal(t, "furniture", v.Get("category"))
	assert.Equal(t, "50", v.Get("maxPrice"))
	assert.False(t, v.Has("minPrice"))
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "12", v.Get("limit"))
}

func TestProductListResolvesImages(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desk", r.URL.Query().Get("search"))
		w.Write([]byte(`{"products":[{"id":"p1","price":"12.00","images":[{"id":"i1","url":"/uploads/a.jpg","isMain":true}]}],"total":1}`))
	})

	page, err := svc.Products.List(context.Background(), ProductFilter{Search: "desk"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "http://assets/uploads/a.jpg", page.Products[0].MainImage())
}

func TestCartMutationWithoutCartBody(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/items/p1", r.URL.Path)
		w.Write([]byte(`{"message":"updated"}`))
	})

	cart, err := svc.Cart.UpdateItem(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestCartMutationReturnsServerTotals(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cart":{"items":[{"productId":"p1","quantity":3,"price":"2.00"}],"subtotal":"6.00","serviceFee":"0.30","total":"6.30"}}`))
	})

	cart, err := svc.Cart.UpdateItem(context.Background(), "p1", 3)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, 3, cart.ItemCount())
	assert.True(t, decimal.RequireFromString("6.30").Equal(cart.Total))
}

func TestCartCount(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"count":4}}`))
	})

	n, err := svc.Cart.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestReviewMineNotFound(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"No review"}`))
	})

	review, err := svc.Reviews.Mine(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestReportCheck(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "product", r.URL.Query().Get("type"))
		assert.Equal(t, "p1", r.URL.Query().Get("itemId"))
		w.Write([]byte(`{"hasReported":true}`))
	})

	reported, err := svc.Reports.Check(context.Background(), "product", "p1")
	require.NoError(t, err)
	assert.True(t, reported)
}

func TestAuthLogoutUsesGivenToken(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer old-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, svc.Auth.Logout(context.Background(), "old-token"))
}

func TestAuthMeAcceptsWrappedUser(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":"u1","name":"Ada","avatar":"a.png"}}`))
	})

	user, err := svc.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "http://assets/uploads/a.png", user.Avatar)
}

func TestMessagesUnreadCount(t *testing.T) {
	svc := newTestServices(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unreadCount":5}`))
	})

	n, err := svc.Messages.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

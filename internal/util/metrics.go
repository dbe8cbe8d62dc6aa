package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_requests_total",
		Help: "Total number of requests sent to the marketplace API",
	}, []string{"method", "route", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Latency of marketplace API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	UnauthorizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_unauthorized_total",
		Help: "Total number of 401 responses that forced a logout",
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Optimistic cart mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	CheckoutSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_submissions_total",
		Help: "Checkout submissions by outcome",
	}, []string{"outcome"})

	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_messages_sent_total",
		Help: "Messages sent from the messaging page by outcome",
	}, []string{"outcome"})

	ProductLoadRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_product_load_retries_total",
		Help: "Automatic retries of the product detail load",
	})

	ActivityEventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_activity_events_failed_total",
		Help: "Activity events that could not be published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

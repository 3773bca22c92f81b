package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed at checkout",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	LoginAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts",
	})

	LoginFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "login_failures_total",
		Help: "Total number of failed logins",
	})

	ReviewsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of product reviews submitted",
	})

	CatalogRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_latency_seconds",
		Help:    "Latency of requests to the remote catalog API",
		Buckets: prometheus.DefBuckets,
	}, []string{"concern"})

	CatalogRequestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_failed_total",
		Help: "Total number of failed remote catalog requests",
	}, []string{"concern"})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

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

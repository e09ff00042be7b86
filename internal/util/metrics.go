package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commands_processed_total",
		Help: "Total number of agent commands applied, by command type",
	}, []string{"type"})

	CommandsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commands_dropped_total",
		Help: "Total number of inbound messages dropped, by reason",
	}, []string{"reason"})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed at checkout",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of orders cancelled inside the window",
	})

	OrderCancelRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_cancel_rejected_total",
		Help: "Total number of cancellations rejected outside the window",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders the kitchen reported completed",
	})

	PlatePreviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plate_previews_total",
		Help: "Total number of plate previews shown",
	})

	TokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tokens_issued_total",
		Help: "Total number of room access tokens issued",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "Number of currently connected data-channel clients",
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

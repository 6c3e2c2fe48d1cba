package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by method, path and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// BidsPlacedTotal counts accepted placements. The degraded label marks
	// local fallback bids.
	BidsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbid_bids_placed_total",
			Help: "Total number of placed bids",
		},
		[]string{"symbol", "side", "degraded"},
	)

	// BidsRejectedTotal counts validation rejections by reason.
	BidsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbid_bids_rejected_total",
			Help: "Total number of rejected bid placements",
		},
		[]string{"symbol", "reason"},
	)

	// BidsCancelledTotal counts successful cancellations.
	BidsCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbid_bids_cancelled_total",
			Help: "Total number of cancelled bids",
		},
		[]string{"symbol"},
	)

	// InvoicesDispatchedTotal counts invoice delivery outcomes by channel.
	InvoicesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockbid_invoices_dispatched_total",
			Help: "Total number of invoice dispatch attempts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// StreamSubscribers tracks open order-book stream connections.
	StreamSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockbid_stream_subscribers",
			Help: "Currently connected order book stream clients",
		},
		[]string{"symbol"},
	)
)

// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2s_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s2s_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// TransferTransitions counts transfer request status transitions.
	TransferTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2s_transfer_transitions_total",
			Help: "Transfer request status transitions",
		},
		[]string{"status"},
	)

	// ReconciliationSkips counts inventory reconciliation steps that
	// were skipped during a status transition.
	ReconciliationSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2s_reconciliation_skips_total",
			Help: "Inventory reconciliation steps skipped during transitions",
		},
		[]string{"reason"},
	)

	// StockLevel tracks current combined stock per store and item.
	StockLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "s2s_stock_level",
			Help: "Combined warehouse and display quantity per item",
		},
		[]string{"store", "item"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latencies. The route label uses
// the matched mux pattern so query strings and path parameters don't
// explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

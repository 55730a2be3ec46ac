package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// POSMetrics aggregates the counters exported by both the backend and the
// terminal core.
type POSMetrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	ScansTotal     *prometheus.CounterVec
	ScansDuplicate prometheus.Counter
	OrdersCreated  prometheus.Counter
	OrderErrors    prometheus.Counter
}

var Default *POSMetrics

// Init registers the POS metric set; safe to call once per process.
func Init(service string) *POSMetrics {
	m := &POSMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "scans_total",
			Help:      "Decoded barcode scans by input path.",
		}, []string{"path"}),
		ScansDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "scans_duplicate_suppressed_total",
			Help:      "Scans dropped by the duplicate suppression window.",
		}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "orders_created_total",
			Help:      "Successfully created orders.",
		}),
		OrderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loomopos",
			Subsystem: service,
			Name:      "order_errors_total",
			Help:      "Failed order submissions.",
		}),
	}
	prometheus.MustRegister(
		m.Requests, m.LatencyMS, m.ScansTotal,
		m.ScansDuplicate, m.OrdersCreated, m.OrderErrors,
	)
	Default = m
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

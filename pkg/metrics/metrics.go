package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application metric set. Everything is registered on
// the default registry and served from /metrics.
type Metrics struct {
	// HTTP
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec

	// Database
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Billing
	InvoicesCreated prometheus.Counter
	InvoicesPaid    *prometheus.CounterVec
	InvoicesVoided  prometheus.Counter

	// Outbox
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
}

func New(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total database operations by name and status",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Database operation latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		InvoicesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Total invoices created",
		}),
		InvoicesPaid: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_paid_total",
			Help:      "Total invoices paid by payment method",
		}, []string{"method"}),
		InvoicesVoided: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_voided_total",
			Help:      "Total invoices voided",
		}),

		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total outbox events published successfully",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total outbox events that exhausted their retries",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent per outbox polling cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
}

// NewForTesting builds an unregistered metric set so tests can create
// several instances without duplicate-registration panics.
func NewForTesting() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
		}, []string{"method", "path", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
		}, []string{"method", "path"}),
		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "database_operations_total",
		}, []string{"operation", "status"}),
		DatabaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "database_operation_duration_seconds",
		}, []string{"operation"}),
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_created_total",
		}),
		InvoicesPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoices_paid_total",
		}, []string{"method"}),
		InvoicesVoided: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_voided_total",
		}),
		OutboxEventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_processed_total",
		}),
		OutboxEventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_failed_total",
		}),
		OutboxProcessingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "outbox_processing_duration_seconds",
		}),
	}
}

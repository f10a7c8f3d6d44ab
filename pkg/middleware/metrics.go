package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
	"github.com/crosstalk-rpc/crosstalk/pkg/protocol"
)

// MetricsConfig configures the Prometheus metrics interceptor.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "crosstalk").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics interceptor.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "crosstalk",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for request dispatch.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

// initMetrics initializes the Prometheus collectors.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of dispatched requests",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Request handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_errors_total",
			Help:        "Total number of handler errors",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "error_type"}),
	}
}

// Prometheus creates an interceptor that collects metrics for every
// dispatched request.
//
// Metrics collected:
//   - crosstalk_requests_total: Counter of requests by method and status
//   - crosstalk_request_duration_seconds: Histogram of handling duration
//   - crosstalk_request_errors_total: Counter of errors by method and error type
//
// The collectors are registered once per process; subsequent Prometheus()
// calls reuse them, so options only take effect on the first call.
func Prometheus(opts ...MetricsOption) channel.Interceptor {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(config)
	})
	m := globalMetrics

	return func(next channel.Handler) channel.Handler {
		return func(ctx context.Context, req *channel.Request) (any, error) {
			start := time.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start).Seconds()

			status := "ok"
			if err != nil {
				status = "error"
				m.requestErrors.WithLabelValues(req.Method, errorType(err)).Inc()
			}
			m.requestsTotal.WithLabelValues(req.Method, status).Inc()
			m.requestDuration.WithLabelValues(req.Method).Observe(elapsed)

			return result, err
		}
	}
}

// errorType buckets an error into a low-cardinality label value, matching
// on the error's type rather than its text.
func errorType(err error) string {
	var remote *channel.RemoteError
	switch {
	case errors.Is(err, channel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &remote):
		if remote.Code == protocol.StatusNotFound {
			return "not_found"
		}
		return "remote"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, channel.ErrClosed), errors.Is(err, channel.ErrNotConnected):
		return "closed"
	default:
		return "handler"
	}
}

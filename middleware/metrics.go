package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/broady/disco"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for outgoing calls.
//
//	m := middleware.NewMetrics(prometheus.DefaultRegisterer, "drive")
//	client, err := disco.New(desc, disco.WithInterceptor(m.Interceptor()))
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

// NewMetrics registers the client metrics with reg under namespace.
// A nil reg registers nothing, which is useful in tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of requests sent, by method and status code",
			},
			[]string{"method", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being sent",
			},
			[]string{"method"},
		),
	}
}

// Interceptor returns an interceptor recording every call. Calls that fail
// before reaching the transport are never counted.
func (m *Metrics) Interceptor() disco.Interceptor {
	return func(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
		method := req.MethodID
		if info, ok := disco.CallInfoFromContext(ctx); ok {
			method = info.Method
		}

		m.inFlight.WithLabelValues(method).Inc()
		start := time.Now()
		resp, err := next(ctx, req)
		m.inFlight.WithLabelValues(method).Dec()

		m.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(method, statusLabel(resp, err)).Inc()
		return resp, err
	}
}

func statusLabel(resp *disco.Response, err error) string {
	switch {
	case resp != nil && resp.StatusCode != 0:
		return strconv.Itoa(resp.StatusCode)
	case err != nil:
		return "error"
	default:
		return "none"
	}
}

package driver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for SPARQL endpoint calls.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.HistogramVec
}

// NewMetrics creates the driver metrics and registers them with reg. A nil
// reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ecosparql",
				Subsystem: "driver",
				Name:      "requests_total",
				Help:      "Total number of SPARQL requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ecosparql",
				Subsystem: "driver",
				Name:      "request_duration_seconds",
				Help:      "SPARQL request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		responseBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ecosparql",
				Subsystem: "driver",
				Name:      "response_bytes",
				Help:      "Size of SPARQL responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"op"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration, m.responseBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one finished request. outcome is "ok" or an error kind.
func (m *Metrics) observe(op, outcome string, d time.Duration, size int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, outcome).Inc()
	m.requestDuration.WithLabelValues(op).Observe(d.Seconds())
	if size > 0 {
		m.responseBytes.WithLabelValues(op).Observe(float64(size))
	}
}

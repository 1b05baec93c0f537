// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "svgkeeper"

// Request outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeRejected      = "rejected"
	OutcomeProtocolError = "protocol_error"
	OutcomeInternalError = "internal_error"
)

// Transports.
const (
	TransportWS   = "ws"
	TransportGRPC = "grpc"
)

// Metrics is safe to use through a nil pointer; every method is then a
// no-op.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	connectionsActive *prometheus.GaugeVec
	connectionsTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. sessions, when
// non-nil, backs the svgkeeper_sessions_active gauge.
func New(reg prometheus.Registerer, sessions func() int) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by action and outcome.",
		}, []string{"action", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling latency, by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open client connections, by transport.",
		}, []string{"transport"}),
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted client connections, by transport.",
		}, []string{"transport"}),
	}

	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration, m.connectionsActive, m.connectionsTotal)
		if sessions != nil {
			reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Live session tokens.",
			}, func() float64 { return float64(sessions()) }))
		}
	}
	return m
}

// ObserveRequest records one handled request. action is "unknown" for
// messages that never decoded.
func (m *Metrics) ObserveRequest(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.requestsTotal.WithLabelValues(action, outcome).Inc()
	m.requestDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ConnectionOpened returns the func to call when the connection closes.
func (m *Metrics) ConnectionOpened(transport string) func() {
	if m == nil {
		return func() {}
	}
	m.connectionsTotal.WithLabelValues(transport).Inc()
	g := m.connectionsActive.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

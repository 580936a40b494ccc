package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dispatch core. Each Metrics
// value carries its own registry so tests can instantiate freely.
type Metrics struct {
	registry *prometheus.Registry

	// Dispatch metrics
	DispatchTotal *prometheus.CounterVec
	RepliesTotal  *prometheus.CounterVec
	Terminations  *prometheus.CounterVec
	BusyTotal     prometheus.Counter

	// Resource metrics
	PoolInUse   prometheus.Gauge
	Connections prometheus.Gauge
	QueueDepth  *prometheus.GaugeVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_dispatch_total",
			Help: "Requests dispatched, by operation kind",
		}, []string{"op"}),
		RepliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_replies_total",
			Help: "Replies delivered through the routing shim, by outcome",
		}, []string{"outcome"}),
		Terminations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spm_terminations_total",
			Help: "Execution contexts terminated for trust violations, by reason",
		}, []string{"reason"}),
		BusyTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "spm_connect_busy_total",
			Help: "Connect attempts rejected with a busy status",
		}),
		PoolInUse: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spm_message_pool_in_use",
			Help: "Message records currently allocated",
		}),
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spm_connections_live",
			Help: "Live client connections",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spm_queue_depth",
			Help: "Pending requests per partition queue",
		}, []string{"partition"}),
		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spm_uptime_seconds",
			Help: "Seconds since dispatcher start",
		}),
		startTime: time.Now(),
	}
}

// Registry exposes the underlying registry for the metrics HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordDispatch counts one dispatched request.
func (m *Metrics) RecordDispatch(op string) {
	m.DispatchTotal.WithLabelValues(op).Inc()
}

// RecordReply counts one delivered reply.
func (m *Metrics) RecordReply(outcome string) {
	m.RepliesTotal.WithLabelValues(outcome).Inc()
}

// RecordTermination counts one trust-violation termination.
func (m *Metrics) RecordTermination(reason string) {
	m.Terminations.WithLabelValues(reason).Inc()
}

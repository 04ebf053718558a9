// Package metrics exposes Prometheus instrumentation for session
// lifecycle and throughput.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dantte-lp/net-tester/internal/session"
)

const (
	namespace = "net_tester"
	subsystem = "session"
)

// Label names for session metrics.
const (
	labelProtocol = "protocol"
	labelMode     = "mode"
	labelEndpoint = "endpoint"
	labelResult   = "result"
)

// Collector holds all session Prometheus metrics.
//
// Metrics are designed for operators running net-tester as a load
// generator against production links:
//   - Sessions tracks currently running sessions.
//   - BytesSent/BytesReceived track cumulative throughput per endpoint.
//   - Completed counts terminal sessions by outcome, for alerting on a
//     rising CHECKSUM_FAILED or TEST_TIMEOUT rate.
//   - Duration observes total session wall-clock time.
type Collector struct {
	// Sessions tracks the number of currently running sessions.
	Sessions *prometheus.GaugeVec

	// BytesSent counts total payload bytes transmitted per endpoint.
	BytesSent *prometheus.CounterVec

	// BytesReceived counts total payload bytes received per endpoint.
	BytesReceived *prometheus.CounterVec

	// Completed counts sessions reaching a terminal state, labeled by
	// outcome (SUCCESS, CHECKSUM_FAILED, TEST_TIMEOUT, ...).
	Completed *prometheus.CounterVec

	// Duration observes total session wall-clock duration in seconds.
	Duration *prometheus.HistogramVec
}

// NewCollector creates a Collector with all session metrics registered
// against reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Sessions,
		c.BytesSent,
		c.BytesReceived,
		c.Completed,
		c.Duration,
	)

	return c
}

func newMetrics() *Collector {
	sessionLabels := []string{labelProtocol, labelMode, labelEndpoint}
	resultLabels := []string{labelProtocol, labelMode, labelEndpoint, labelResult}

	return &Collector{
		Sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active",
			Help:      "Number of currently running sessions.",
		}, sessionLabels),

		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_sent_total",
			Help:      "Total payload bytes transmitted.",
		}, sessionLabels),

		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_received_total",
			Help:      "Total payload bytes received.",
		}, sessionLabels),

		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completed_total",
			Help:      "Total sessions reaching a terminal state, by outcome.",
		}, resultLabels),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Total session wall-clock duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		}, sessionLabels),
	}
}

// -------------------------------------------------------------------------
// Session Lifecycle
// -------------------------------------------------------------------------

// RegisterSession increments the active sessions gauge for cfg.
func (c *Collector) RegisterSession(cfg session.Config) {
	c.Sessions.WithLabelValues(labels(cfg)...).Inc()
}

// UnregisterSession decrements the active sessions gauge for cfg.
func (c *Collector) UnregisterSession(cfg session.Config) {
	c.Sessions.WithLabelValues(labels(cfg)...).Dec()
}

// -------------------------------------------------------------------------
// Throughput and Completion
// -------------------------------------------------------------------------

// Observe records a terminated session's byte counts, outcome, and
// duration. Called once per session, when it reaches a terminal state.
func (c *Collector) Observe(cfg session.Config, stats session.Stats, failure *session.Error) {
	base := labels(cfg)

	c.BytesSent.WithLabelValues(base...).Add(float64(stats.BytesSent))
	c.BytesReceived.WithLabelValues(base...).Add(float64(stats.BytesReceived))
	c.Duration.WithLabelValues(base...).Observe(stats.TotalDuration.Seconds())

	kind := session.Success
	if failure != nil {
		kind = failure.Kind
	}
	c.Completed.WithLabelValues(append(base, kind.String())...).Inc()
}

func labels(cfg session.Config) []string {
	return []string{cfg.Protocol.String(), cfg.Mode.String(), cfg.Endpoint.String()}
}

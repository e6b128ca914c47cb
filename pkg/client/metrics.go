package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cellclient").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for latency, in seconds.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cellclient",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the client's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	framesIn      *prometheus.CounterVec
	framesOut     *prometheus.CounterVec
	bytesIn       *prometheus.CounterVec
	bytesOut      *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
	sendErrors    *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	reconnects    *prometheus.CounterVec
	connected     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	dispatchDelay prometheus.Histogram
}

// NewMetrics registers the client collectors.
//
// Metrics collected:
//   - cellclient_frames_in_total: inbound frames by session and opcode
//   - cellclient_frames_out_total: outbound frames by session and opcode
//   - cellclient_bytes_in_total / _bytes_out_total: bytes by session
//   - cellclient_decode_errors_total: fatal decode errors by session
//   - cellclient_send_errors_total: swallowed send failures by session
//   - cellclient_actions_dropped_total: throttled actions by action
//   - cellclient_reconnects_total: scheduled reconnects by session
//   - cellclient_connected: 1 while a session's connection is open
//   - cellclient_latency_seconds: keepalive round trip by session
//   - cellclient_dispatch_seconds: time spent handling one frame
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		framesIn:     counter("frames_in_total", "Inbound frames by session and opcode", "session", "opcode"),
		framesOut:    counter("frames_out_total", "Outbound frames by session and opcode", "session", "opcode"),
		bytesIn:      counter("bytes_in_total", "Inbound bytes by session", "session"),
		bytesOut:     counter("bytes_out_total", "Outbound bytes by session", "session"),
		decodeErrors: counter("decode_errors_total", "Frames that failed to decode", "session"),
		sendErrors:   counter("send_errors_total", "Outbound writes that failed", "session"),
		dropped:      counter("actions_dropped_total", "Actions dropped by the throttle", "action"),
		reconnects:   counter("reconnects_total", "Reconnects scheduled", "session"),

		connected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connected",
			Help:        "1 while the session connection is open",
			ConstLabels: config.ConstLabels,
		}, []string{"session"}),

		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "latency_seconds",
			Help:        "Keepalive round trip in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"session"}),

		dispatchDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_seconds",
			Help:        "Time spent handling one inbound frame",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
	}
}

func (m *Metrics) frameIn(role, op string, n int) {
	if m == nil {
		return
	}
	m.framesIn.WithLabelValues(role, op).Inc()
	m.bytesIn.WithLabelValues(role).Add(float64(n))
}

func (m *Metrics) frameOut(role, op string, n int) {
	if m == nil {
		return
	}
	m.framesOut.WithLabelValues(role, op).Inc()
	m.bytesOut.WithLabelValues(role).Add(float64(n))
}

func (m *Metrics) decodeError(role string) {
	if m != nil {
		m.decodeErrors.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) sendError(role string) {
	if m != nil {
		m.sendErrors.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) actionDropped(action string) {
	if m != nil {
		m.dropped.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) reconnect(role string) {
	if m != nil {
		m.reconnects.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) setConnected(role string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.connected.WithLabelValues(role).Set(v)
}

func (m *Metrics) observeLatency(role string, seconds float64) {
	if m != nil {
		m.latency.WithLabelValues(role).Observe(seconds)
	}
}

func (m *Metrics) observeDispatch(seconds float64) {
	if m != nil {
		m.dispatchDelay.Observe(seconds)
	}
}

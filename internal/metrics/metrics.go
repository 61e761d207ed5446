package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "truthgate"

const (
	SubsystemGateway = "gateway"
	SubsystemCounsel = "counsel"
)

// Message kinds counted by MessagesTotal
const (
	KindCreated = "created"
	KindEdited  = "edited"
	KindDeleted = "deleted"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	WebhookOutcomes   *prometheus.CounterVec
	GatewayVerify     *prometheus.HistogramVec
	MessagesTotal     *prometheus.CounterVec
	SocketConnections prometheus.Gauge
	RetentionPurged   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_outcomes_total",
			Help:      "Payment webhook deliveries by processing outcome.",
		}, []string{"outcome"}),
		GatewayVerify: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: SubsystemGateway,
			Name:      "verify_duration_seconds",
			Help:      "Latency of transaction verification calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: SubsystemCounsel,
			Name:      "messages_total",
			Help:      "Chat messages created, edited or deleted.",
		}, []string{"kind"}),
		SocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: SubsystemCounsel,
			Name:      "websocket_connections",
			Help:      "Open chat websocket connections on this instance.",
		}),
		RetentionPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: SubsystemCounsel,
			Name:      "retention_purged_total",
			Help:      "Expired 24h conversations deleted by the sweeper.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.WebhookOutcomes,
		m.GatewayVerify,
		m.MessagesTotal,
		m.SocketConnections,
		m.RetentionPurged,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.WebhookOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveVerify(result string, started time.Time) {
	if m == nil {
		return
	}
	m.GatewayVerify.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveMessage(kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.SocketConnections.Inc()
}

func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.SocketConnections.Dec()
}

func (m *Metrics) ObservePurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RetentionPurged.Add(float64(n))
}

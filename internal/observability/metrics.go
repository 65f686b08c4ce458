package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Updates           *prometheus.CounterVec
	Replies           *prometheus.CounterVec
	Completions       *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec
	Intents           *prometheus.CounterVec
	MemoryUsers       prometheus.Gauge
	WebhookRequests   *prometheus.CounterVec

	latency *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Updates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound Telegram updates by transport and kind.",
		}, []string{"transport", "kind"}),
		Replies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Outbound replies by result.",
		}, []string{"result"}),
		Completions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion calls by provider, mode and outcome.",
		}, []string{"provider", "mode", "outcome"}),
		CompletionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Completion call latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}, []string{"provider"}),
		Intents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Detected action intents by platform.",
		}, []string{"platform"}),
		MemoryUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_users",
			Help:      "Users with a live conversation window.",
		}),
		WebhookRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook HTTP requests by status code.",
		}, []string{"code"}),
		latency: newLatencyWindow(defaultLatencySamples),
	}
}

func (m *Metrics) ObserveUpdate(transport, kind string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(transport, kind).Inc()
}

func (m *Metrics) ObserveReply(result string) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCompletion(provider, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(provider, mode, outcome).Inc()
	m.CompletionLatency.WithLabelValues(provider).Observe(float64(d.Milliseconds()))
	m.latency.observe(provider, mode, outcome, d)
}

// SnapshotLatency returns recent completion latency by provider and mode.
func (m *Metrics) SnapshotLatency() LatencySnapshot {
	if m == nil || m.latency == nil {
		return LatencySnapshot{GeneratedAt: time.Now().UTC(), Completions: []LatencyStats{}, Outcomes: []OutcomeCount{}}
	}
	return m.latency.snapshot()
}

func (m *Metrics) ObserveIntent(platform string) {
	if m == nil {
		return
	}
	m.Intents.WithLabelValues(platform).Inc()
}

func (m *Metrics) SetMemoryUsers(n int) {
	if m == nil {
		return
	}
	m.MemoryUsers.Set(float64(n))
}

func (m *Metrics) ObserveWebhook(code string) {
	if m == nil {
		return
	}
	m.WebhookRequests.WithLabelValues(code).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

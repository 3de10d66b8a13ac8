package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/arisu/plugin/ai/agent"
)

// Metrics groups all Prometheus instruments used by the bot.
type Metrics struct {
	registry *prometheus.Registry

	Messages           *prometheus.CounterVec
	RateLimited        prometheus.Counter
	Queries            *prometheus.CounterVec
	CompletionAttempts prometheus.Histogram
	CompletionErrors   *prometheus.CounterVec
	Truncations        prometheus.Counter
	QueryLatency       prometheus.Histogram
	InFlightQueries    prometheus.Gauge
}

// NewMetrics registers the instruments on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by classified intent.",
		}, []string{"intent"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Messages dropped by the per-chat rate limit.",
		}),
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_queries_total",
			Help:      "AI queries by outcome.",
		}, []string{"outcome"}),
		CompletionAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_completion_attempts",
			Help:      "Completion calls made per AI query.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		CompletionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_completion_errors_total",
			Help:      "Failed completion calls by error class.",
		}, []string{"class"}),
		Truncations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_history_truncations_total",
			Help:      "Conversations that lost turns to the token budget.",
		}),
		QueryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_query_latency_ms",
			Help:      "AI query latency in milliseconds, retries included.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}),
		InFlightQueries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ai_queries_in_flight",
			Help:      "AI queries holding a completion slot.",
		}),
	}
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordMessage counts one inbound message.
func (m *Metrics) RecordMessage(intent string) {
	if intent == "" {
		intent = "none"
	}
	m.Messages.WithLabelValues(intent).Inc()
}

// RecordRateLimited counts one message dropped by the per-chat limit.
func (m *Metrics) RecordRateLimited() {
	m.RateLimited.Inc()
}

// TrackQuery marks a query as in flight until the returned func is called.
func (m *Metrics) TrackQuery() func() {
	m.InFlightQueries.Inc()
	return m.InFlightQueries.Dec
}

func (m *Metrics) RecordQuery(success bool, attempts int, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.Queries.WithLabelValues(outcome).Inc()
	m.CompletionAttempts.Observe(float64(attempts))
	m.QueryLatency.Observe(float64(duration.Milliseconds()))
}

func (m *Metrics) RecordErrorClass(class agent.ErrorClass) {
	m.CompletionErrors.WithLabelValues(class.String()).Inc()
}

func (m *Metrics) RecordTruncation() {
	m.Truncations.Inc()
}

var _ agent.MetricsRecorder = (*Metrics)(nil)

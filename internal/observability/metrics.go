package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Messages         *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	AgentActivations prometheus.Counter
	Callbacks        *prometheus.CounterVec
	SessionEvents    *prometheus.CounterVec
	ScamConfidence   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Messages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by processing status.",
		}, []string{"status"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of resident honeypot sessions.",
		}),
		AgentActivations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_activations_total",
			Help:      "Sessions that crossed the engagement threshold.",
		}),
		Callbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Finalize callback attempts by outcome.",
		}, []string{"outcome"}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		ScamConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scam_confidence",
			Help:      "Per-message classifier confidence for scam verdicts.",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.6, 0.75, 0.85, 0.95, 1},
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

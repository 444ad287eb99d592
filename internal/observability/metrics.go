package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and turns every observation into a no-op, so libraries
// and tests can run without registering collectors.
type Metrics struct {
	Turns           *prometheus.CounterVec
	TurnErrors      *prometheus.CounterVec
	ToolInvocations *prometheus.CounterVec
	ParseFallbacks  *prometheus.CounterVec
	TurnLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed interaction turns by persona.",
		}, []string{"persona"}),
		TurnErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Failed interaction turns by persona.",
		}, []string{"persona"}),
		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool dispatches by tool name.",
		}, []string{"tool"}),
		ParseFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_fallbacks_total",
			Help:      "Model-output parse degradations by stage.",
		}, []string{"stage"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

func (m *Metrics) IncTurn(persona string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(persona).Inc()
}

func (m *Metrics) IncTurnError(persona string) {
	if m == nil {
		return
	}
	m.TurnErrors.WithLabelValues(persona).Inc()
}

func (m *Metrics) IncTool(tool string) {
	if m == nil {
		return
	}
	m.ToolInvocations.WithLabelValues(tool).Inc()
}

func (m *Metrics) IncParseFallback(stage string) {
	if m == nil {
		return
	}
	m.ParseFallbacks.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SearchMetrics exposes search controller activity to Prometheus.
type SearchMetrics struct {
	resolutions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	sessions    prometheus.Gauge
}

// NewSearchMetrics registers the search collectors with reg.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	factory := promauto.With(reg)
	return &SearchMetrics{
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_search_resolutions_total",
				Help: "Search requests resolved, by request kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_search_duration_seconds",
				Help:    "Time from issuing a search to its resolution",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"kind"},
		),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "recipe_active_sessions",
			Help: "Sessions currently held in memory",
		}),
	}
}

// ObserveResolution records a single search resolution.
func (m *SearchMetrics) ObserveResolution(kind, outcome string, latency time.Duration) {
	m.resolutions.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(latency.Seconds())
}

// SetActiveSessions updates the session gauge.
func (m *SearchMetrics) SetActiveSessions(n int) {
	m.sessions.Set(float64(n))
}

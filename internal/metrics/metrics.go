package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flicktrainer"

var (
	analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Game performances analyzed, by result (ok or rejected).",
	}, []string{"result"})

	outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Recommendations produced, by what the controller did with them.",
	}, []string{"outcome"})

	patternsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "patterns_generated_total",
		Help:      "Flick patterns generated, by family and tier.",
	}, []string{"family", "tier"})

	liveDifficulty = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "live_difficulty",
		Help:      "Live difficulty after each adaptation step.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Session contexts currently held in memory.",
	})
)

func ObserveAnalysis(ok bool) {
	if ok {
		analyses.WithLabelValues("ok").Inc()
		return
	}
	analyses.WithLabelValues("rejected").Inc()
}

func ObserveOutcome(outcome string) {
	outcomes.WithLabelValues(outcome).Inc()
}

func ObservePattern(family, tier string) {
	patternsGenerated.WithLabelValues(family, tier).Inc()
}

func ObserveDifficulty(d float64) {
	liveDifficulty.Observe(d)
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

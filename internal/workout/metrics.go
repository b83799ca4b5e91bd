package workout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records which generation path produced each workout and why the AI path was skipped.
type Metrics struct {
	generated   *prometheus.CounterVec
	aiFailures  *prometheus.CounterVec
	aiLatency   prometheus.Histogram
	exercises   prometheus.Histogram
	emptyResult prometheus.Counter
}

// NewMetrics registers the generator metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		generated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fittrack",
			Name:      "workouts_generated_total",
			Help:      "Generated workouts by source (catalog or ai).",
		}, []string{"source"}),
		aiFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fittrack",
			Name:      "ai_failures_total",
			Help:      "AI generation attempts that fell back to the catalog, by reason.",
		}, []string{"reason"}),
		aiLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fittrack",
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI generation calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32}, //nolint:mnd // seconds.
		}),
		exercises: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fittrack",
			Name:      "workout_exercises",
			Help:      "Number of exercises in generated workouts.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8), //nolint:mnd // 1 to 15 exercises.
		}),
		emptyResult: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fittrack",
			Name:      "workouts_no_match_total",
			Help:      "Requests for which the catalog had no matching exercises.",
		}),
	}
}

func (m *Metrics) observeGenerated(w GeneratedWorkout) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(string(w.Source)).Inc()
	m.exercises.Observe(float64(len(w.Exercises)))
}

func (m *Metrics) observeAIFailure(reason string) {
	if m == nil {
		return
	}
	m.aiFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeAILatency(seconds float64) {
	if m == nil {
		return
	}
	m.aiLatency.Observe(seconds)
}

func (m *Metrics) observeNoMatch() {
	if m == nil {
		return
	}
	m.emptyResult.Inc()
}

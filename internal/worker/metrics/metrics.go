package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the worker onboarding module.
type Metrics struct {
	WorkersRegistered prometheus.Counter
	StepsSaved        *prometheus.CounterVec
	Submissions       prometheus.Counter
	Restarts          prometheus.Counter
	AdvanceDuration   prometheus.Histogram
}

// New creates a Metrics instance with all worker module metrics registered.
func New() *Metrics {
	return &Metrics{
		WorkersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_workers_registered_total",
			Help: "Total number of worker profiles created",
		}),
		StepsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suraksha_onboarding_steps_saved_total",
			Help: "Total onboarding step submissions accepted, by step",
		}, []string{"step"}),
		Submissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_onboarding_submissions_total",
			Help: "Total applications submitted for police verification",
		}),
		Restarts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_onboarding_restarts_total",
			Help: "Total onboarding restarts after rejection",
		}),
		AdvanceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "suraksha_onboarding_advance_duration_seconds",
			Help:    "Duration of onboarding step saves",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementStepSaved records an accepted step submission.
func (m *Metrics) IncrementStepSaved(step string) {
	m.StepsSaved.WithLabelValues(step).Inc()
}

// ObserveAdvance records the duration of a step save.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAdvance(start time.Time) {
	m.AdvanceDuration.Observe(time.Since(start).Seconds())
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the police verification module.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	IDsIssued        prometheus.Counter
	FaceChecks       prometheus.Counter
	Incidents        *prometheus.CounterVec
	Expirations      prometheus.Counter
	DecisionDuration prometheus.Histogram
}

// New creates a Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suraksha_verification_decisions_total",
			Help: "Total verification decisions recorded, by outcome",
		}, []string{"decision"}),
		IDsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_worker_ids_issued_total",
			Help: "Total official worker IDs issued",
		}),
		FaceChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_face_checks_total",
			Help: "Total biometric face checks recorded",
		}),
		Incidents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suraksha_incidents_logged_total",
			Help: "Total incident reports filed, by severity",
		}, []string{"severity"}),
		Expirations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suraksha_verifications_expired_total",
			Help: "Total worker verifications lapsed by the expiry sweep",
		}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "suraksha_verification_decision_duration_seconds",
			Help:    "Duration of verification decisions including issuance",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementDecision records a recorded decision outcome.
func (m *Metrics) IncrementDecision(decision string) {
	m.Decisions.WithLabelValues(decision).Inc()
}

// IncrementIncident records a filed incident by severity.
func (m *Metrics) IncrementIncident(severity string) {
	m.Incidents.WithLabelValues(severity).Inc()
}

// ObserveDecision records the duration of a decision.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDecision(start time.Time) {
	m.DecisionDuration.Observe(time.Since(start).Seconds())
}

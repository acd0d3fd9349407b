package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Comparison outcomes.
const (
	OutcomeScored   = "scored"
	OutcomeSentinel = "sentinel"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Collaborator kinds.
const (
	CollaboratorTranslate = "translate"
	CollaboratorDetect    = "detect"
)

// Metrics contains all Prometheus metrics for the name similarity service.
// Metrics are organized by subsystem: comparisons, collaborators, circuit
// breakers, and events. All metrics are registered via promauto with the
// default Prometheus registry.
type Metrics struct {
	// ComparisonsTotal counts comparisons, labeled by mode and outcome.
	ComparisonsTotal *prometheus.CounterVec

	// ComparisonDuration observes end-to-end comparison duration in seconds, labeled by mode.
	ComparisonDuration *prometheus.HistogramVec

	// FinalScores observes the distribution of returned scores (0-100).
	FinalScores prometheus.Histogram

	// Classifications counts comparisons by pair kind (swapped, mixed, plain).
	Classifications *prometheus.CounterVec

	// DiscardedMetrics counts metric values dropped by the outlier filter.
	DiscardedMetrics prometheus.Counter

	// Fallbacks counts basic-similarity fallbacks, labeled by reason.
	Fallbacks *prometheus.CounterVec

	// CollaboratorRequests counts remote collaborator calls, labeled by kind and provider.
	CollaboratorRequests *prometheus.CounterVec

	// CollaboratorFailures counts failed collaborator calls, labeled by kind, provider and error type.
	CollaboratorFailures *prometheus.CounterVec

	// CollaboratorDuration observes collaborator call duration in seconds.
	CollaboratorDuration *prometheus.HistogramVec

	// BreakerTransitions counts circuit breaker state changes, labeled by breaker and target state.
	BreakerTransitions *prometheus.CounterVec

	// BreakerState reports the current breaker state (0=closed, 1=open, 2=half-open).
	BreakerState *prometheus.GaugeVec

	// EventsPublished counts events written to the stream, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts events that could not be written, labeled by event type.
	EventsFailed *prometheus.CounterVec

	// MessagesConsumed counts request messages read by the worker, labeled by outcome.
	MessagesConsumed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ComparisonsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Total number of name comparisons",
		}, []string{"mode", "outcome"}),
		ComparisonDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "Duration of name comparisons including translation",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),
		FinalScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Distribution of returned similarity scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of compared pairs by classification",
		}, []string{"kind"}),
		DiscardedMetrics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_metrics_total",
			Help:      "Total number of metric values discarded as outliers",
		}),
		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of basic-similarity fallbacks",
		}, []string{"reason"}),

		CollaboratorRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_requests_total",
			Help:      "Total number of calls to remote collaborators",
		}, []string{"kind", "provider"}),
		CollaboratorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Total number of failed calls to remote collaborators",
		}, []string{"kind", "provider", "error_type"}),
		CollaboratorDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_duration_seconds",
			Help:      "Duration of calls to remote collaborators",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind", "provider"}),

		BreakerTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		}, []string{"breaker", "to"}),
		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"breaker"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of events published",
		}, []string{"event_type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of events that failed to publish",
		}, []string{"event_type"}),
		MessagesConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total number of score request messages consumed",
		}, []string{"outcome"}),
	}
}

// RecordComparison records a finished comparison.
func (m *Metrics) RecordComparison(mode, outcome, kind string, score float64, discarded int, durationSeconds float64) {
	m.ComparisonsTotal.WithLabelValues(mode, outcome).Inc()
	m.ComparisonDuration.WithLabelValues(mode).Observe(durationSeconds)
	m.FinalScores.Observe(score)
	if kind != "" {
		m.Classifications.WithLabelValues(kind).Inc()
	}
	if discarded > 0 {
		m.DiscardedMetrics.Add(float64(discarded))
	}
}

// RecordComparisonFailed records a comparison that returned an error.
func (m *Metrics) RecordComparisonFailed(mode string, durationSeconds float64) {
	m.ComparisonsTotal.WithLabelValues(mode, OutcomeError).Inc()
	m.ComparisonDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordFallback records a basic-similarity fallback.
func (m *Metrics) RecordFallback(reason string) {
	m.Fallbacks.WithLabelValues(reason).Inc()
}

// RecordCollaboratorRequest records a call to a remote collaborator.
func (m *Metrics) RecordCollaboratorRequest(kind, provider string, durationSeconds float64) {
	m.CollaboratorRequests.WithLabelValues(kind, provider).Inc()
	m.CollaboratorDuration.WithLabelValues(kind, provider).Observe(durationSeconds)
}

// RecordCollaboratorFailure records a failed call to a remote collaborator.
func (m *Metrics) RecordCollaboratorFailure(kind, provider, errorType string) {
	m.CollaboratorFailures.WithLabelValues(kind, provider, errorType).Inc()
}

// RecordBreakerTransition records a circuit breaker state change. to is one
// of closed, open, half_open.
func (m *Metrics) RecordBreakerTransition(breaker, to string) {
	m.BreakerTransitions.WithLabelValues(breaker, to).Inc()
	m.BreakerState.WithLabelValues(breaker).Set(breakerStateValue(to))
}

// RecordEventPublished records a published event.
func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed records an event that could not be published.
func (m *Metrics) RecordEventFailed(eventType string) {
	m.EventsFailed.WithLabelValues(eventType).Inc()
}

// RecordMessageConsumed records a consumed request message.
func (m *Metrics) RecordMessageConsumed(outcome string) {
	m.MessagesConsumed.WithLabelValues(outcome).Inc()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 1
	case "half_open":
		return 2
	default:
		return 0
	}
}

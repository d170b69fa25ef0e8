package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for consumed messages.
const (
	OutcomeOK         = "ok"
	OutcomeRetried    = "retried"
	OutcomeDeadLetter = "dead_letter"
	OutcomePoison     = "poison"
)

// Metrics holds the Prometheus instruments for the messaging pipeline.
type Metrics struct {
	MessagesConsumed   *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	StatusTransitions  *prometheus.CounterVec
}

// New creates and registers all metrics on the given registerer. Production
// code passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_messages_consumed_total",
			Help: "Messages consumed per queue and outcome",
		}, []string{"queue", "outcome"}),
		ProcessingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "explorer_message_processing_seconds",
			Help:    "Handler duration per queue",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_event_status_transitions_total",
			Help: "Event status transitions written by the tracker",
		}, []string{"status"}),
	}
}

// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_outcomes_total",
			Help: "Participant transitions by outcome (sent, skipped, deferred_window, deferred_quota, completed, failed)",
		},
		[]string{"outcome"},
	)

	DispatchClaimErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_claim_errors_total",
			Help: "Claims rolled back because of an infrastructure error",
		},
	)

	DispatchBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_batch_duration_seconds",
			Help:    "Duration of one dispatch batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchBatchClaims = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_batch_claims",
			Help:    "Participants claimed per dispatch batch",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CampaignsAutoCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaigns_auto_completed_total",
			Help: "Campaigns flipped to completed after their last participant finished",
		},
	)

	LeadRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_requests_total",
			Help: "Lead-creation requests by result (created, existing, error)",
		},
		[]string{"result"},
	)

	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_events_total",
			Help: "Reply and stage-change events by kind and result",
		},
		[]string{"kind", "result"},
	)
)

package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// outboundActions counts Graph API calls by action and result (sent|failed).
	outboundActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_actions_total",
			Help: "Outbound Graph API actions by action kind and result.",
		},
		[]string{"action", "result"},
	)

	// webhookEvents counts dispatched webhook events by kind and outcome.
	// Outcomes are a closed set (see the outcome* constants).
	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by kind (comment, dm, receipt) and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(outboundActions, webhookEvents)
}

// Event kinds and outcomes used as webhook_events_total labels.
const (
	kindComment = "comment"
	kindDM      = "dm"
	kindReceipt = "receipt"

	outcomeInvalid   = "invalid"
	outcomeSelf      = "self"
	outcomeDuplicate = "duplicate"
	outcomeReplied   = "replied"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
	outcomeIgnored   = "ignored"
	outcomeHandled   = "handled"
	outcomeError     = "error"
)

func countEvent(kind, outcome string) {
	webhookEvents.WithLabelValues(kind, outcome).Inc()
}

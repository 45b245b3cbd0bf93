package metrics

import (
	"time"

	"wardenhq/sentinel/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ApprovalMetrics tracks metrics related to the human-in-the-loop approval
// workflow.
//
// Metrics (names shown with the default namespace and subsystem):
//   - sentinel_governance_approval_requests_total: Total approval requests by tool
//   - sentinel_governance_approval_resolutions_total: Resolved approvals by tool, outcome
//   - sentinel_governance_approval_wait_seconds: Time elapsed between request and resolution
//   - sentinel_governance_approval_pending: Current count of outstanding approval requests
type ApprovalMetrics struct {
	// Approval request counter
	requests *prometheus.CounterVec

	// Approval resolution counter
	resolutions *prometheus.CounterVec

	// Approval wait time histogram
	wait *prometheus.HistogramVec

	// Current outstanding approval count
	pending prometheus.Gauge
}

// NewApprovalMetrics creates and registers approval metrics with the provided registry.
func NewApprovalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ApprovalMetrics {
	am := &ApprovalMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "approval_requests_total",
				Help:      "Total number of tool calls routed to the approval workflow",
			},
			[]string{"tool"},
		),

		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "approval_resolutions_total",
				Help:      "Total number of resolved approval requests by outcome",
			},
			[]string{"tool", "outcome"},
		),

		wait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "approval_wait_seconds",
				Help:      "Time elapsed between an approval request and its resolution",
				Buckets:   cfg.ApprovalWaitBuckets,
			},
			[]string{"tool", "outcome"},
		),

		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "approval_pending",
				Help:      "Current number of approval requests awaiting resolution",
			},
		),
	}

	registry.MustRegister(
		am.requests,
		am.resolutions,
		am.wait,
		am.pending,
	)

	return am
}

// RecordRequested records that a tool call entered the approval workflow.
//
// Parameters:
//   - tool: the tool name awaiting approval
func (am *ApprovalMetrics) RecordRequested(tool string) {
	am.requests.WithLabelValues(tool).Inc()
}

// RecordResolved records the outcome of an approval request.
//
// Parameters:
//   - tool: the tool name that was awaiting approval
//   - outcome: how the approval was resolved ("approved", "rejected", "timed_out")
//   - wait: time elapsed between request and resolution
func (am *ApprovalMetrics) RecordResolved(tool, outcome string, wait time.Duration) {
	am.resolutions.WithLabelValues(tool, outcome).Inc()
	am.wait.WithLabelValues(tool, outcome).Observe(wait.Seconds())
}

// UpdatePending sets the current count of outstanding approval requests.
func (am *ApprovalMetrics) UpdatePending(count int) {
	am.pending.Set(float64(count))
}

package metrics

import (
	"time"

	"wardenhq/sentinel/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks metrics related to tool-call decision evaluation.
//
// Metrics (names shown with the default namespace and subsystem):
//   - sentinel_governance_decisions_total: Total decision count by agent, tool, action
//   - sentinel_governance_decision_duration_seconds: Decision evaluation duration histogram
//   - sentinel_governance_kill_switch_blocks_total: Tool calls rejected by an active kill switch
type DecisionMetrics struct {
	// Total decision count
	decisionsTotal *prometheus.CounterVec

	// Decision duration histogram
	decisionDuration *prometheus.HistogramVec

	// Kill switch block count
	killSwitchBlocksTotal *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers decision metrics with the provided registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decisions_total",
				Help:      "Total number of tool-call decisions evaluated",
			},
			[]string{"agent_id", "tool", "action"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Duration of tool-call decision evaluation in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"agent_id", "tool"},
		),

		killSwitchBlocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "kill_switch_blocks_total",
				Help:      "Total number of tool calls rejected by an active kill switch",
			},
			[]string{"scope"},
		),
	}

	registry.MustRegister(
		dm.decisionsTotal,
		dm.decisionDuration,
		dm.killSwitchBlocksTotal,
	)

	return dm
}

// RecordDecision records metrics for a completed decision evaluation.
//
// Parameters:
//   - agentID: the agent the tool call was evaluated for
//   - tool: the tool name being invoked
//   - action: the decision outcome ("allow", "deny", "requires_approval")
//   - duration: evaluation duration
func (dm *DecisionMetrics) RecordDecision(agentID, tool, action string, duration time.Duration) {
	dm.decisionsTotal.WithLabelValues(agentID, tool, action).Inc()
	dm.decisionDuration.WithLabelValues(agentID, tool).Observe(duration.Seconds())
}

// RecordKillSwitchBlock records a tool call rejected by an active kill switch.
//
// Parameters:
//   - scope: the kill switch scope that blocked the call ("global" or an agent ID)
func (dm *DecisionMetrics) RecordKillSwitchBlock(scope string) {
	dm.killSwitchBlocksTotal.WithLabelValues(scope).Inc()
}

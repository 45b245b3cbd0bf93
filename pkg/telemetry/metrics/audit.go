package metrics

import (
	"time"

	"wardenhq/sentinel/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks metrics for the hash-chained audit log: append
// throughput, chain-verification outcomes, and retention pruning.
//
// Metrics (names shown with the default namespace and subsystem):
//   - sentinel_governance_audit_appends_total: Total audit log appends by status
//   - sentinel_governance_audit_append_duration_seconds: Append latency histogram
//   - sentinel_governance_audit_chain_verifications_total: Chain verification outcomes
//   - sentinel_governance_audit_chain_verify_duration_seconds: Chain verification latency
//   - sentinel_governance_audit_records_pruned_total: Records removed by retention sweeps
type AuditMetrics struct {
	appendsTotal    *prometheus.CounterVec
	appendDuration  *prometheus.HistogramVec
	verifyTotal     *prometheus.CounterVec
	verifyDuration  prometheus.Histogram
	verifyRecords   prometheus.Histogram
	recordsPruned   prometheus.Counter
}

// NewAuditMetrics creates and registers audit metrics with the provided registry.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		appendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_appends_total",
				Help:      "Total number of audit log appends by status",
			},
			[]string{"status"},
		),

		appendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_append_duration_seconds",
				Help:      "Duration of an audit log append, including chain hash update",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"status"},
		),

		verifyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_chain_verifications_total",
				Help:      "Total number of hash-chain verifications by outcome",
			},
			[]string{"status"},
		),

		verifyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_chain_verify_duration_seconds",
				Help:      "Duration of a hash-chain verification pass in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
			},
		),

		verifyRecords: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_chain_verify_records",
				Help:      "Number of audit records covered by a single verification pass",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
			},
		),

		recordsPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_records_pruned_total",
				Help:      "Total number of audit records removed by retention sweeps",
			},
		),
	}

	registry.MustRegister(
		am.appendsTotal,
		am.appendDuration,
		am.verifyTotal,
		am.verifyDuration,
		am.verifyRecords,
		am.recordsPruned,
	)

	return am
}

// RecordAppend records an append to the audit log.
//
// Parameters:
//   - status: "success" or "error"
//   - duration: time spent appending and updating the chain hash
func (am *AuditMetrics) RecordAppend(status string, duration time.Duration) {
	am.appendsTotal.WithLabelValues(status).Inc()
	am.appendDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordVerification records the outcome of a hash-chain integrity check.
//
// Parameters:
//   - status: "valid" or "broken"
//   - duration: time spent verifying the chain
//   - recordsChecked: number of records covered by the check
func (am *AuditMetrics) RecordVerification(status string, duration time.Duration, recordsChecked int) {
	am.verifyTotal.WithLabelValues(status).Inc()
	am.verifyDuration.Observe(duration.Seconds())
	am.verifyRecords.Observe(float64(recordsChecked))
}

// RecordPrune records the number of records a retention sweep removed.
func (am *AuditMetrics) RecordPrune(recordsPruned int) {
	if recordsPruned <= 0 {
		return
	}
	am.recordsPruned.Add(float64(recordsPruned))
}

// Package metrics provides Prometheus metrics collection for the governance
// decision engine.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring tool-call
// decision evaluation, policy rule matching, the approval workflow, the kill
// switch, and the audit log, with low overhead per update. The orchestrator
// in this module does not call the collector; the serve command only
// exposes its registry.
//
// # Metrics Categories
//
//   - Decision Metrics: decision count and duration by agent, tool, and action
//   - Policy Metrics: rule evaluation count, duration, hits, and misses
//   - Approval Metrics: request/resolution counts, wait time, pending gauge
//   - Audit Metrics: append throughput, chain-verification outcomes, pruning
//   - Cache Metrics: policy resolution cache hits, misses, and size
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record a decision
//	collector.RecordDecision("agent-42", "send_email", "allow", 800*time.Microsecond)
//
//	// Record policy rule evaluation
//	collector.RecordPolicyEvaluation("deny-prod-db-writes", "deny", 40*time.Microsecond)
//
//	// Record an approval request and its resolution
//	collector.RecordApprovalRequested("delete_repository")
//	collector.RecordApprovalResolved("delete_repository", "approved", 4*time.Minute)
//
//	// Record an audit append and a periodic chain verification
//	collector.RecordAuditAppend("success", 300*time.Microsecond)
//	collector.RecordChainVerification("valid", 120*time.Millisecond, 50000)
//
// # Performance
//
// The metrics package is optimized for minimal overhead:
//
//   - Pre-allocated metric instances
//   - A fixed cardinality limit on the decision metric's label sets
//   - Target: low single-digit microseconds per metric update
//
// # Custom Histogram Buckets
//
// The collector uses histogram buckets sized for the governance workload:
//
//	Decision Duration: 100µs, 500µs, 1ms, 5ms, 10ms, 50ms, 100ms, 500ms, 1s
//	Approval Wait:      1s, 5s, 15s, 1m, 5m, 15m, 30m, 1h
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus
// format (shown with the default namespace and subsystem):
//
//	# HELP sentinel_governance_decisions_total Total number of tool-call decisions evaluated
//	# TYPE sentinel_governance_decisions_total counter
//	sentinel_governance_decisions_total{action="allow",agent_id="agent-42",tool="send_email"} 1234
//
// # Cardinality Management
//
// The collector implements cardinality limits to prevent memory issues:
//
//   - Maximum 10,000 unique label combinations tracked across decision labels
//   - Once the limit is reached, a decision whose label set has not been
//     seen before is recorded with agent_id "other"
package metrics

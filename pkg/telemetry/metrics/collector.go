package metrics

import (
	"fmt"
	"sync"
	"time"

	"wardenhq/sentinel/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics the governance
// engine emits. It manages metric registration and provides a unified
// interface for recording metrics across the decision, policy, approval,
// kill switch, audit, and cache concerns.
//
// The collector keeps per-update overhead low:
//   - Pre-allocated metric instances
//   - Cardinality limits to prevent label-set memory blowup
//   - Histogram buckets sized for sub-millisecond decision evaluation
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Decision metrics
	decisionMetrics *DecisionMetrics

	// Approval metrics
	approvalMetrics *ApprovalMetrics

	// Policy metrics
	policyMetrics *PolicyMetrics

	// Audit metrics
	auditMetrics *AuditMetrics

	// Cache metrics (policy resolution cache)
	cacheMetrics *CacheMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new empty registry is
// created; the global default Prometheus registry is not used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "sentinel",
//		Subsystem: "governance",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "sentinel"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "governance"
	}
	if len(cfg.DecisionDurationBuckets) == 0 {
		// Optimized for in-process decision evaluation (sub-ms to 1s)
		cfg.DecisionDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}
	}
	if len(cfg.ApprovalWaitBuckets) == 0 {
		// Optimized for human-in-the-loop approval wait times (1s - 1h)
		cfg.ApprovalWaitBuckets = []float64{1, 5, 15, 60, 300, 900, 1800, 3600}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.decisionMetrics = NewDecisionMetrics(cfg, registry)
	c.approvalMetrics = NewApprovalMetrics(cfg, registry)
	c.policyMetrics = NewPolicyMetrics(cfg, registry)
	c.auditMetrics = NewAuditMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

// RecordDecision records metrics for a completed tool-call evaluation.
//
// Parameters:
//   - agentID: the agent the tool call was evaluated for
//   - tool: the tool name being invoked
//   - action: the decision outcome ("allow", "deny", "requires_approval")
//   - duration: total evaluation duration
//
// Example:
//
//	collector.RecordDecision("agent-42", "send_email", "allow", 800*time.Microsecond)
func (c *Collector) RecordDecision(agentID, tool, action string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit
	labelSet := fmt.Sprintf("decision:%s:%s:%s", agentID, tool, action)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		agentID = "other"
	}

	c.decisionMetrics.RecordDecision(agentID, tool, action, duration)
}

// RecordKillSwitchBlock records a tool call rejected because the kill
// switch was active.
//
// Parameters:
//   - scope: the kill switch scope that blocked the call ("global" or an agent ID)
func (c *Collector) RecordKillSwitchBlock(scope string) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordKillSwitchBlock(scope)
}

// RecordApprovalRequested records that a tool call entered the approval
// workflow.
//
// Parameters:
//   - tool: the tool name awaiting approval
func (c *Collector) RecordApprovalRequested(tool string) {
	if !c.config.Enabled {
		return
	}

	c.approvalMetrics.RecordRequested(tool)
}

// RecordApprovalResolved records the outcome of an approval request.
//
// Parameters:
//   - tool: the tool name that was awaiting approval
//   - outcome: how the approval was resolved ("approved", "rejected", "timed_out")
//   - wait: time elapsed between request and resolution
func (c *Collector) RecordApprovalResolved(tool, outcome string, wait time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.approvalMetrics.RecordResolved(tool, outcome, wait)
}

// UpdateApprovalPending sets the current count of outstanding approval
// requests.
func (c *Collector) UpdateApprovalPending(count int) {
	if !c.config.Enabled {
		return
	}

	c.approvalMetrics.UpdatePending(count)
}

// RecordPolicyEvaluation records metrics for a single policy matched against
// a tool call.
//
// Parameters:
//   - ruleID: the policy rule identifier
//   - action: the action the rule would take ("allow", "deny", "requires_approval")
//   - duration: evaluation duration
//
// Example:
//
//	collector.RecordPolicyEvaluation(
//		"deny-prod-db-writes",
//		"deny",
//		40*time.Microsecond,
//	)
func (c *Collector) RecordPolicyEvaluation(ruleID, action string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.policyMetrics.RecordEvaluation(ruleID, action, duration)
}

// RecordPolicyHit records when a policy rule matched a tool call.
//
// Parameters:
//   - ruleID: the policy rule identifier
func (c *Collector) RecordPolicyHit(ruleID string) {
	if !c.config.Enabled {
		return
	}

	c.policyMetrics.RecordHit(ruleID)
}

// RecordPolicyMiss records when a policy rule did not match.
//
// Parameters:
//   - ruleID: the policy rule identifier
func (c *Collector) RecordPolicyMiss(ruleID string) {
	if !c.config.Enabled {
		return
	}

	c.policyMetrics.RecordMiss(ruleID)
}

// RecordAuditAppend records an append to the hash-chained audit log.
//
// Parameters:
//   - status: "success" or "error"
//   - duration: time spent appending and updating the chain hash
func (c *Collector) RecordAuditAppend(status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordAppend(status, duration)
}

// RecordChainVerification records the result of a hash-chain integrity
// check over a range of audit records.
//
// Parameters:
//   - status: "valid" or "broken"
//   - duration: time spent verifying the chain
//   - recordsChecked: number of records covered by the check
func (c *Collector) RecordChainVerification(status string, duration time.Duration, recordsChecked int) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordVerification(status, duration, recordsChecked)
}

// RecordRetentionPrune records a retention sweep's outcome.
//
// Parameters:
//   - recordsPruned: number of audit records removed
func (c *Collector) RecordRetentionPrune(recordsPruned int) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordPrune(recordsPruned)
}

// RecordCacheHit records a cache hit.
//
// Parameters:
//   - cacheName: Name of the cache (e.g., "policy_resolution")
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
//
// Parameters:
//   - cacheName: Name of the cache
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the current size of a cache.
//
// Parameters:
//   - cacheName: Name of the cache
//   - size: Current number of entries in the cache
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateSize(cacheName, size)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

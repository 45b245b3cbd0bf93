package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Benchmark_Collector_RecordDecision benchmarks decision recording
func Benchmark_Collector_RecordDecision(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordDecision("agent-1", "read_file", "allow", 200*time.Microsecond)
	}
}

// Benchmark_Collector_RecordDecision_Parallel benchmarks parallel decision recording
func Benchmark_Collector_RecordDecision_Parallel(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordDecision("agent-1", "read_file", "allow", 200*time.Microsecond)
		}
	})
}

// Benchmark_Collector_RecordKillSwitchBlock benchmarks kill switch block recording
func Benchmark_Collector_RecordKillSwitchBlock(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordKillSwitchBlock("global")
	}
}

// Benchmark_Collector_RecordPolicyEvaluation benchmarks policy evaluation recording
func Benchmark_Collector_RecordPolicyEvaluation(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordPolicyEvaluation("deny-prod-db-writes", "deny", 40*time.Microsecond)
	}
}

// Benchmark_Collector_RecordApprovalResolved benchmarks approval resolution recording
func Benchmark_Collector_RecordApprovalResolved(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordApprovalResolved("delete_repository", "approved", 4*time.Minute)
	}
}

// Benchmark_Collector_RecordAuditAppend benchmarks audit append recording
func Benchmark_Collector_RecordAuditAppend(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordAuditAppend("success", 300*time.Microsecond)
	}
}

// Benchmark_Collector_RecordCacheHit benchmarks cache hit recording
func Benchmark_Collector_RecordCacheHit(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordCacheHit("policy_resolution")
	}
}

// Benchmark_DecisionMetrics_RecordDecision benchmarks raw decision metric recording
func Benchmark_DecisionMetrics_RecordDecision(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	dm := NewDecisionMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dm.RecordDecision("agent-1", "read_file", "allow", 200*time.Microsecond)
	}
}

// Benchmark_ApprovalMetrics_RecordResolved benchmarks approval resolution recording
func Benchmark_ApprovalMetrics_RecordResolved(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	am := NewApprovalMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		am.RecordResolved("delete_repository", "approved", 4*time.Minute)
	}
}

// Benchmark_PolicyMetrics_RecordEvaluation benchmarks policy evaluation recording
func Benchmark_PolicyMetrics_RecordEvaluation(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	pm := NewPolicyMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pm.RecordEvaluation("deny-prod-db-writes", "deny", 40*time.Microsecond)
	}
}

// Benchmark_AuditMetrics_RecordAppend benchmarks audit append recording
func Benchmark_AuditMetrics_RecordAppend(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	am := NewAuditMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		am.RecordAppend("success", 300*time.Microsecond)
	}
}

// Benchmark_CacheMetrics_RecordHit benchmarks cache hit recording
func Benchmark_CacheMetrics_RecordHit(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	cm := NewCacheMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cm.RecordHit("policy_resolution")
	}
}

// Benchmark_CardinalityLimiter_Allow benchmarks cardinality checking
func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label1")
	}
}

// Benchmark_CardinalityLimiter_Allow_New benchmarks cardinality checking with new labels
func Benchmark_CardinalityLimiter_Allow_New(b *testing.B) {
	limiter := NewCardinalityLimiter(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label" + string(rune(i)))
	}
}

// Benchmark_Collector_Disabled benchmarks metrics when disabled
func Benchmark_Collector_Disabled(b *testing.B) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordDecision("agent-1", "read_file", "allow", 200*time.Microsecond)
	}
}

// Benchmark_Collector_ManyLabels benchmarks recording with many different label values
func Benchmark_Collector_ManyLabels(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	agents := []string{"agent-1", "agent-2", "agent-3", "agent-4"}
	tools := []string{"read_file", "send_email", "delete_repository", "run_query"}
	actions := []string{"allow", "deny", "requires_approval"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agentID := agents[i%len(agents)]
		tool := tools[i%len(tools)]
		action := actions[i%len(actions)]
		collector.RecordDecision(agentID, tool, action, 200*time.Microsecond)
	}
}

// Benchmark_Collector_AllMetrics benchmarks recording all metric types
func Benchmark_Collector_AllMetrics(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordDecision("agent-1", "read_file", "allow", 200*time.Microsecond)
		collector.RecordPolicyEvaluation("deny-prod-db-writes", "allow", 40*time.Microsecond)
		collector.RecordCacheHit("policy_resolution")
	}
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"wardenhq/sentinel/pkg/agent"
	"wardenhq/sentinel/pkg/policy"
	"wardenhq/sentinel/pkg/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: "file::memory:?cache=shared", MaxOpenConns: 1, MaxIdleConns: 1, WALMode: false})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate call should be a no-op, got: %v", err)
	}
}

func TestAppendAuditChainsAcrossRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r1, err := s.AppendAudit(ctx, store.AuditRecord{TraceID: "t1", AgentID: "a1", Tool: "file_read", Result: "allowed", Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := s.AppendAudit(ctx, store.AuditRecord{TraceID: "t2", AgentID: "a1", Tool: "file_write", Result: "denied", Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if r2.PreviousHash == r1.PreviousHash {
		t.Fatalf("expected distinct previous-hash markers across rows")
	}

	latest, err := s.LatestHash(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != r2.Hash {
		t.Fatalf("expected latest hash to match second row")
	}
}

func TestAuditLogRejectsUpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec, err := s.AppendAudit(ctx, store.AuditRecord{TraceID: "t1", AgentID: "a1", Tool: "file_read", Result: "allowed", Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE audit_log SET result = 'denied' WHERE id = ?", rec.ID); err == nil {
		t.Fatalf("expected the append-only trigger to reject an update")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM audit_log WHERE id = ?", rec.ID); err == nil {
		t.Fatalf("expected the append-only trigger to reject a delete outside pruning")
	}
}

func TestQueryAuditFiltersBySearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "file_write", Result: "denied", Reason: "system paths are protected", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "file_read", Result: "allowed", Reason: "ok", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}

	got, err := s.QueryAudit(ctx, store.AuditQuery{Search: "protected"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tool != "file_write" {
		t.Fatalf("expected search to match the protected-path denial, got %+v", got)
	}
}

func TestEscapeLikeNeutralizesWildcards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Reason: "100% done", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Reason: "unrelated", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}

	got, err := s.QueryAudit(ctx, store.AuditQuery{Search: "100%"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected literal '%%' search to match exactly one row, got %d", len(got))
	}
}

func TestUpsertPolicyAndGetActivePolicy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p1 := policy.Policy{Name: "p", AgentID: "a1", Version: 1, Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectAllow}}}
	if _, err := s.UpsertPolicy(ctx, p1); err != nil {
		t.Fatal(err)
	}
	p2 := policy.Policy{Name: "p", AgentID: "a1", Version: 2, Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectDeny}}}
	rec2, err := s.UpsertPolicy(ctx, p2)
	if err != nil {
		t.Fatal(err)
	}

	active, err := s.GetActivePolicy(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.Version != 2 {
		t.Fatalf("expected active policy version 2, got %+v", active)
	}

	history, err := s.PolicyHistory(ctx, "p")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	if err := s.DeletePolicy(ctx, rec2.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPolicyByID(ctx, rec2.ID); err == nil {
		t.Fatalf("expected not-found after delete")
	}
}

func TestAgentLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.RegisterAgent(ctx, agent.Agent{
		ID: "a1", Name: "agent one", AllowedTools: []string{"search"}, PolicyName: "default",
		Metadata: map[string]string{"team": "sec"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != agent.StatusRegistered {
		t.Fatalf("expected default registered status")
	}

	if err := s.UpdateAgentStatus(ctx, "a1", agent.StatusRunning); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != agent.StatusRunning || got.Metadata["team"] != "sec" {
		t.Fatalf("unexpected agent state: %+v", got)
	}
	if len(got.AllowedTools) != 1 || got.AllowedTools[0] != "search" || got.PolicyName != "default" {
		t.Fatalf("unexpected agent fields: %+v", got)
	}
	if got.LastActiveAt == nil {
		t.Fatalf("expected last active timestamp to be set by status update")
	}

	// Free-form transitions: even a nominally "terminal" status can move
	// to any other status.
	if err := s.UpdateAgentStatus(ctx, "a1", agent.StatusStopped); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateAgentStatus(ctx, "a1", agent.StatusRunning); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListAgents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(list))
	}

	if err := s.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetAgent(ctx, "a1"); err == nil {
		t.Fatalf("expected not-found after delete")
	}
}

func TestApprovalRequestOptimisticResolution(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	req, err := s.CreateApprovalRequest(ctx, store.ApprovalRequest{
		ID: "r1", AgentID: "a1", Tool: "file_delete",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != "pending" {
		t.Fatalf("expected default pending status")
	}

	resolved, err := s.ResolveApprovalRequest(ctx, "r1", store.ApprovalResolution{Status: "granted", ResolvedBy: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != "granted" || resolved.ResolvedAt == nil {
		t.Fatalf("unexpected resolved request: %+v", resolved)
	}

	again, err := s.ResolveApprovalRequest(ctx, "r1", store.ApprovalResolution{Status: "timeout"})
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != "granted" {
		t.Fatalf("expected second resolution to be a no-op, got %s", again.Status)
	}
}

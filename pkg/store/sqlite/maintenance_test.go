package sqlite

import (
	"context"
	"testing"
	"time"

	"wardenhq/sentinel/pkg/store"
)

func TestPruneAuditBeforeRemovesOnlyOlderRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: recent}); err != nil {
		t.Fatal(err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	removed, err := s.PruneAuditBefore(ctx, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected to prune exactly 1 row, removed %d", removed)
	}

	got, err := s.QueryAudit(ctx, store.AuditQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Timestamp.After(cutoff) {
		t.Fatalf("expected only the recent row to survive pruning, got %+v", got)
	}
}

func TestPruneAuditBeforeClearsMaintenanceFlagAfterCommit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PruneAuditBefore(ctx, time.Now()); err != nil {
		t.Fatal(err)
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM maintenance_flag WHERE key = 'prune_in_progress'").Scan(&value)
	if err == nil {
		t.Fatalf("expected prune_in_progress flag to be cleared after commit, found value %q", value)
	}

	rec, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM audit_log WHERE id = ?", rec.ID); err == nil {
		t.Fatalf("expected the delete trigger to still reject deletes outside a prune transaction")
	}
}

func TestInsertChainBoundaryRestartsChainFromGenesis(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PruneAuditBefore(ctx, time.Now()); err != nil {
		t.Fatal(err)
	}

	boundary, err := s.InsertChainBoundary(ctx, store.AuditRecord{
		AgentID: "system", Tool: "retention", Result: "retention-boundary", Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if boundary.PreviousHash == "" || boundary.Hash == "" {
		t.Fatalf("expected boundary record to carry a genesis previous-hash and computed hash, got %+v", boundary)
	}

	next, err := s.AppendAudit(ctx, store.AuditRecord{AgentID: "a1", Tool: "t", Result: "allowed", Timestamp: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if next.PreviousHash == "" {
		t.Fatalf("expected the row following the boundary to chain off it")
	}

	latest, err := s.LatestHash(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != next.Hash {
		t.Fatalf("expected latest hash to reflect the post-boundary chain")
	}
}

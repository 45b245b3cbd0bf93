package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/hashchain"
	"wardenhq/sentinel/pkg/store"
)

// PruneAuditBefore deletes rows older than cutoff. The audit_log_no_delete
// trigger (schema.go) only permits a delete while maintenance_flag's
// prune_in_progress key is set, and only for the lifetime of the
// transaction that set it — so this is the sole path in the codebase that
// can remove an audit row.
func (s *Store) PruneAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to begin prune transaction", nil).Wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO maintenance_flag (key, value) VALUES ('prune_in_progress', '1')
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`); err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to raise prune flag", nil).Wrap(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to prune audit rows", nil).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to confirm pruned row count", nil).Wrap(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM maintenance_flag WHERE key = 'prune_in_progress'`); err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to clear prune flag", nil).Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to commit prune transaction", nil).Wrap(err)
	}
	return n, nil
}

// InsertChainBoundary inserts rec with its previous-hash forced to the
// genesis marker, independent of whatever the current chain tail is —
// this is what lets the hash chain restart cleanly right after a prune.
func (s *Store) InsertChainBoundary(ctx context.Context, rec store.AuditRecord) (store.AuditRecord, error) {
	rec.PreviousHash = hashchain.GenesisMarker
	hash, err := hashchain.Compute(rec.ToHashChainRecord(), "")
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to compute boundary hash", nil).Wrap(err)
	}
	rec.Hash = hash

	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to marshal boundary parameters", nil).Wrap(err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			trace_id, timestamp, agent_id, tool, parameters, result, reason,
			duration_ms, failure_category, previous_hash, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.Timestamp, rec.AgentID, rec.Tool, string(params), rec.Result, rec.Reason,
		rec.DurationMs, nullIfEmpty(rec.FailureCategory), rec.PreviousHash, rec.Hash,
	)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to insert chain boundary", nil).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to read boundary insert id", nil).Wrap(err)
	}
	rec.ID = id
	return rec, nil
}

var _ store.Maintenance = (*Store)(nil)

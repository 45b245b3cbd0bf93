// Package audit is the write/verify/export façade over store.Store's audit
// log, adapted from pkg/evidence/recorder/recorder.go: it owns hash-chain
// computation on write and chain verification on read so no caller
// constructs a store.AuditRecord's Hash/PreviousHash by hand.
package audit

import (
	"context"
	"time"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/hashchain"
	"wardenhq/sentinel/pkg/store"
)

// Recorder writes and reads audit records against a store.Store.
type Recorder struct {
	store store.Store
}

// New creates a Recorder over the given store.
func New(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// Entry is the caller-facing input to Record: everything a decision
// pipeline knows about a tool call, before hash-chain bookkeeping.
type Entry struct {
	TraceID         string
	AgentID         string
	Tool            string
	Parameters      map[string]any
	Result          string
	Reason          string
	DurationMs      int64
	FailureCategory string
}

// Record redacts sensitive parameters, appends the entry to the store
// (which computes the hash chain), and returns the persisted record.
func (r *Recorder) Record(ctx context.Context, e Entry) (store.AuditRecord, error) {
	rec := store.AuditRecord{
		TraceID:         e.TraceID,
		Timestamp:       time.Now().UTC(),
		AgentID:         e.AgentID,
		Tool:            e.Tool,
		Parameters:      RedactParameters(e.Parameters),
		Result:          e.Result,
		Reason:          e.Reason,
		DurationMs:      e.DurationMs,
		FailureCategory: e.FailureCategory,
	}
	return r.store.AppendAudit(ctx, rec)
}

// Query proxies store.Store.QueryAudit, applying the default page size.
func (r *Recorder) Query(ctx context.Context, q store.AuditQuery) ([]store.AuditRecord, error) {
	if q.Limit <= 0 {
		q.Limit = store.DefaultQueryLimit
	}
	return r.store.QueryAudit(ctx, q)
}

// VerifyChain reads every record matching q in ascending id order and
// verifies the hash chain across them.
func (r *Recorder) VerifyChain(ctx context.Context, q store.AuditQuery) (hashchain.VerifyResult, error) {
	q.SortOrder = "asc"
	records, err := r.store.QueryAudit(ctx, q)
	if err != nil {
		return hashchain.VerifyResult{}, err
	}

	entries := make([]hashchain.ChainEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, hashchain.ChainEntry{
			ID:       rec.ID,
			PrevHash: previousHashValue(rec.PreviousHash),
			Hash:     rec.Hash,
			Record:   rec.ToHashChainRecord(),
		})
	}

	result, err := hashchain.VerifyChain(entries)
	if err != nil {
		return hashchain.VerifyResult{}, gerr.New(gerr.CodeInvalidRequest, "chain verification failed", nil).Wrap(err)
	}
	return result, nil
}

// previousHashValue strips the CHAIN:/GENESIS_NULL marker a stored record
// carries back down to the raw hash hashchain.Compute expects as prevHash.
func previousHashValue(marker string) string {
	const prefix = "CHAIN:"
	if len(marker) > len(prefix) && marker[:len(prefix)] == prefix {
		return marker[len(prefix):]
	}
	return ""
}

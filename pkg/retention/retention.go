// Package retention implements the audit log's age-based pruning and the
// "retention-boundary" chain-reset record named in spec.md §3/§6.
//
// Grounded on pkg/evidence/retention/pruner.go: the same two-phase
// Prune (age, then count) over a storage abstraction, the same
// archive-before-delete option, the same cron-scheduled wrapper
// (scheduler.go). Adapted because the audit log's append-only trigger
// (pkg/store/sqlite's audit_log_no_delete) forbids the ordinary delete
// path the teacher's storage.Delete used directly: pruning here goes
// through store.Maintenance instead, and always appends a
// retention-boundary record to restart the hash chain cleanly.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"wardenhq/sentinel/pkg/audit"
	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/store"
)

// Config configures the retention pruner.
type Config struct {
	// RetentionDays is how many days of audit history to keep. 0 means
	// keep forever (no age-based pruning).
	RetentionDays int

	// PruneSchedule is a cron expression the Scheduler runs Prune on.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	PruneSchedule string

	// ArchiveBeforeDelete exports pruned records to ArchivePath as NDJSON
	// before they are removed.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory archive files are written to.
	ArchivePath string

	// MaxRecords caps the audit log's total row count. 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig mirrors the teacher's evidence-retention defaults.
func DefaultConfig() Config {
	return Config{
		RetentionDays:       90,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/archives/",
		MaxRecords:          0,
	}
}

// Pruner enforces Config against an audit store that also implements
// store.Maintenance.
type Pruner struct {
	maintenance store.Maintenance
	recorder    *audit.Recorder
	config      Config
	logger      *slog.Logger
	scheduler   *Scheduler
}

// NewPruner builds a Pruner. maintenance is the same backing store as
// recorder, type-asserted to its store.Maintenance capability by the
// caller — kept as a separate parameter so pkg/retention is the only
// package holding a reference to that privileged interface.
func NewPruner(maintenance store.Maintenance, recorder *audit.Recorder, config Config) *Pruner {
	p := &Pruner{
		maintenance: maintenance,
		recorder:    recorder,
		config:      config,
		logger:      slog.Default().With("component", "retention.pruner"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune runs age-based pruning (when RetentionDays > 0) and then
// count-based pruning (when MaxRecords > 0), and returns the total number
// of audit rows removed. A
// non-zero result always ends with a retention-boundary record appended
// to the chain.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		if deleted > 0 {
			p.logger.Info("pruned audit records by age", "deleted_count", deleted, "retention_days", p.config.RetentionDays)
		}
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		if deleted > 0 {
			p.logger.Info("pruned audit records by count", "deleted_count", deleted, "max_records", p.config.MaxRecords)
		}
	}

	if totalDeleted == 0 {
		p.logger.Debug("no audit records pruned", "retention_days", p.config.RetentionDays)
		return 0, nil
	}

	if _, err := p.maintenance.InsertChainBoundary(ctx, store.AuditRecord{
		TraceID: "retention",
		AgentID: "system",
		Tool:    "retention.prune",
		Result:  "retention-boundary",
		Reason:  fmt.Sprintf("pruned %d records older than %d days", totalDeleted, p.config.RetentionDays),
	}); err != nil {
		return totalDeleted, fmt.Errorf("failed to insert chain boundary after pruning: %w", err)
	}

	p.logger.Info("retention pruning completed", "total_deleted", totalDeleted, "retention_days", p.config.RetentionDays)
	return totalDeleted, nil
}

// pruneByAge archives (if configured) then deletes every audit record
// older than RetentionDays.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	q := store.AuditQuery{EndTime: &cutoff, SortOrder: "asc", Limit: store.MaxQueryLimit}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, q, cutoff); err != nil {
			return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to archive audit records before pruning", nil).Wrap(err)
		}
	}

	deleted, err := p.maintenance.PruneAuditBefore(ctx, cutoff)
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to prune audit records by age", nil).Wrap(err)
	}
	return deleted, nil
}

// pruneByCount deletes the oldest records once the total row count
// exceeds MaxRecords, by finding the cutoff timestamp among all rows and
// delegating to the same age-based delete path.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	all, err := p.recorder.Query(ctx, store.AuditQuery{SortOrder: "asc", Limit: store.MaxQueryLimit})
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to query audit records for count-based pruning", nil).Wrap(err)
	}
	if int64(len(all)) <= p.config.MaxRecords {
		return 0, nil
	}
	sortByTimestampAsc(all)

	toDelete := int64(len(all)) - p.config.MaxRecords
	cutoff := all[toDelete-1].Timestamp.Add(time.Nanosecond)

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, store.AuditQuery{EndTime: &cutoff, SortOrder: "asc", Limit: store.MaxQueryLimit}, cutoff); err != nil {
			return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to archive audit records before count-based pruning", nil).Wrap(err)
		}
	}

	deleted, err := p.maintenance.PruneAuditBefore(ctx, cutoff)
	if err != nil {
		return 0, gerr.New(gerr.CodeDatabaseRequired, "failed to prune audit records by count", nil).Wrap(err)
	}
	return deleted, nil
}

// archive writes every record matching q, in NDJSON, to a dated file
// under ArchivePath.
func (p *Pruner) archive(ctx context.Context, q store.AuditQuery, cutoff time.Time) error {
	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	archiveFile := filepath.Join(p.config.ArchivePath, fmt.Sprintf("audit-%s.ndjson", cutoff.Format("2006-01-02-150405")))
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	count, err := p.recorder.ExportNDJSON(ctx, q, f)
	if err != nil {
		return fmt.Errorf("failed to export audit records to archive: %w", err)
	}
	p.logger.Info("archived audit records before pruning", "archive_file", archiveFile, "record_count", count)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning run, or nil
// if the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

func sortByTimestampAsc(recs []store.AuditRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
}

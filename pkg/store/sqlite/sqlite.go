// Package sqlite implements store.Store on an embedded SQLite database in
// WAL mode, grounded on pkg/evidence/storage/sqlite.go's connection setup,
// pragma sequencing, and schema-version verification.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/hashchain"
	"wardenhq/sentinel/pkg/store"
)

// Config configures the SQLite backend.
type Config struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	WALMode      bool
	BusyTimeout  time.Duration
}

// DefaultConfig mirrors the teacher's evidence-store defaults, renamed to
// this domain's default file name.
func DefaultConfig() Config {
	return Config{
		Path:         "data/sentinel.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// Store implements store.Store and store.ApprovalStore against SQLite.
type Store struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// Open creates and migrates a SQLite-backed Store.
func Open(config Config) (*Store, error) {
	if config.Path == "" {
		config = DefaultConfig()
	}
	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open(driverName, config.Path)
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to open sqlite database", map[string]any{"path": config.Path}).Wrap(err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &Store{db: db, config: config, logger: logger}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite store initialized", "path", config.Path, "wal_mode", config.WALMode)
	return s, nil
}

// Migrate applies pragmas and the schema, and verifies the schema version.
func (s *Store) Migrate(ctx context.Context) error {
	if s.config.WALMode {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return gerr.New(gerr.CodeDatabaseRequired, "failed to enable WAL mode", nil).Wrap(err)
		}
	}
	busyMs := s.config.BusyTimeout.Milliseconds()
	if busyMs == 0 {
		busyMs = 5000
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", busyMs)); err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to set busy timeout", nil).Wrap(err)
	}
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to create schema", nil).Wrap(err)
	}
	if _, err := s.db.ExecContext(ctx, InsertSchemaVersion, SchemaVersion); err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to record schema version", nil).Wrap(err)
	}
	var version int
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to read schema version", nil).Wrap(err)
	}
	if version != SchemaVersion {
		return gerr.New(gerr.CodeDatabaseRequired, "schema version mismatch", map[string]any{
			"expected": SchemaVersion, "actual": version,
		})
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to close sqlite database", nil).Wrap(err)
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, rec store.AuditRecord) (store.AuditRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to begin transaction", nil).Wrap(err)
	}
	defer tx.Rollback()

	var lastHash string
	err = tx.QueryRowContext(ctx, "SELECT hash FROM audit_log ORDER BY id DESC LIMIT 1").Scan(&lastHash)
	if err != nil && err != sql.ErrNoRows {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to read chain tail", nil).Wrap(err)
	}

	rec.PreviousHash = hashchain.PreviousMarker(lastHash)
	hash, err := hashchain.Compute(rec.ToHashChainRecord(), lastHash)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to compute audit hash", nil).Wrap(err)
	}
	rec.Hash = hash

	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to marshal parameters", nil).Wrap(err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (
			trace_id, timestamp, agent_id, tool, parameters, result, reason,
			duration_ms, failure_category, previous_hash, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.Timestamp, rec.AgentID, rec.Tool, string(params), rec.Result, rec.Reason,
		rec.DurationMs, nullIfEmpty(rec.FailureCategory), rec.PreviousHash, rec.Hash,
	)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to insert audit record", nil).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to read inserted audit id", nil).Wrap(err)
	}
	rec.ID = id

	if err := tx.Commit(); err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to commit audit insert", nil).Wrap(err)
	}
	return rec, nil
}

func (s *Store) LatestHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM audit_log ORDER BY id DESC LIMIT 1").Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", gerr.New(gerr.CodeDatabaseRequired, "failed to read latest hash", nil).Wrap(err)
	}
	return hash, nil
}

func (s *Store) QueryAudit(ctx context.Context, q store.AuditQuery) ([]store.AuditRecord, error) {
	sqlQuery, args := buildAuditQuery(q)
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to query audit log", nil).Wrap(err)
	}
	defer rows.Close()

	var out []store.AuditRecord
	for rows.Next() {
		rec, err := scanAuditRow(rows)
		if err != nil {
			return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to scan audit row", nil).Wrap(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to iterate audit rows", nil).Wrap(err)
	}
	return out, nil
}

// StreamExport streams matching audit rows off the caller's stack for
// NDJSON export (spec.md §6), grounded on
// pkg/evidence/storage/sqlite.go's QueryStream.
func (s *Store) StreamExport(ctx context.Context, q store.AuditQuery) (<-chan store.AuditRecord, <-chan error) {
	recordsCh := make(chan store.AuditRecord, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := buildAuditQuery(q)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- gerr.New(gerr.CodeDatabaseRequired, "failed to query audit log for export", nil).Wrap(err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}
			rec, err := scanAuditRow(rows)
			if err != nil {
				errCh <- gerr.New(gerr.CodeDatabaseRequired, "failed to scan audit row for export", nil).Wrap(err)
				return
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- gerr.New(gerr.CodeDatabaseRequired, "failed to iterate audit rows for export", nil).Wrap(err)
		}
	}()

	return recordsCh, errCh
}

// escapeLike escapes SQLite LIKE metacharacters so free-text search treats
// user input literally, using backslash as the escape character declared
// in the ESCAPE clause at each call site.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func buildAuditQuery(q store.AuditQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.AgentID != "" {
		clauses = append(clauses, "agent_id = ?")
		args = append(args, q.AgentID)
	}
	if q.Tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, q.Tool)
	}
	if q.Result != "" {
		clauses = append(clauses, "result = ?")
		args = append(args, q.Result)
	}
	if q.Search != "" {
		clauses = append(clauses, "(reason LIKE ? ESCAPE '\\' OR parameters LIKE ? ESCAPE '\\')")
		like := "%" + escapeLike(q.Search) + "%"
		args = append(args, like, like)
	}
	if q.StartTime != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, *q.StartTime)
	}
	if q.EndTime != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, *q.EndTime)
	}

	sqlQuery := "SELECT id, trace_id, timestamp, agent_id, tool, parameters, result, reason, duration_ms, failure_category, previous_hash, hash FROM audit_log"
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + strings.Join(clauses, " AND ")
	}

	order := "ASC"
	if strings.EqualFold(q.SortOrder, "desc") {
		order = "DESC"
	}
	sqlQuery += " ORDER BY id " + order

	limit := q.Limit
	if limit <= 0 {
		limit = store.DefaultQueryLimit
	}
	if limit > store.MaxQueryLimit {
		limit = store.MaxQueryLimit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	return sqlQuery, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRow(row rowScanner) (store.AuditRecord, error) {
	var rec store.AuditRecord
	var params, reason, failureCategory sql.NullString
	if err := row.Scan(&rec.ID, &rec.TraceID, &rec.Timestamp, &rec.AgentID, &rec.Tool, &params, &rec.Result,
		&reason, &rec.DurationMs, &failureCategory, &rec.PreviousHash, &rec.Hash); err != nil {
		return store.AuditRecord{}, err
	}
	rec.Reason = reason.String
	rec.FailureCategory = failureCategory.String
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &rec.Parameters); err != nil {
			return store.AuditRecord{}, err
		}
	}
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ store.Store = (*Store)(nil)
var _ store.ApprovalStore = (*Store)(nil)
var _ store.Maintenance = (*Store)(nil)

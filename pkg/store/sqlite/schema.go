package sqlite

// SchemaVersion is the current database schema version, grounded on
// pkg/evidence/storage/sqlite_schema.go's schema_version table pattern.
const SchemaVersion = 1

// Schema creates every table this store needs plus the append-only guard
// on the audit table (spec.md §4.5: audit records are insert-only: update
// and delete are rejected at the storage boundary). The trigger is the
// boundary; PruneAuditBefore (maintenance.go), reached from pkg/retention
// through store.Maintenance, bypasses it deliberately by setting
// maintenance_flag inside its own transaction, never through this
// schema's regular write path.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	agent_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	parameters TEXT,
	result TEXT NOT NULL,
	reason TEXT,
	duration_ms INTEGER,
	failure_category TEXT,
	previous_hash TEXT NOT NULL,
	hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_agent_id ON audit_log(agent_id);
CREATE INDEX IF NOT EXISTS idx_audit_tool ON audit_log(tool);
CREATE INDEX IF NOT EXISTS idx_audit_result ON audit_log(result);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);

CREATE TRIGGER IF NOT EXISTS audit_log_no_update
BEFORE UPDATE ON audit_log
BEGIN
	SELECT RAISE(ABORT, 'audit_log is append-only: update rejected');
END;

CREATE TRIGGER IF NOT EXISTS audit_log_no_delete
BEFORE DELETE ON audit_log
WHEN (SELECT value FROM maintenance_flag WHERE key = 'prune_in_progress') IS NULL
BEGIN
	SELECT RAISE(ABORT, 'audit_log is append-only: delete rejected outside retention pruning');
END;

-- maintenance_flag gates the delete trigger above. Only PruneAuditBefore
-- (maintenance.go) sets prune_in_progress, and it clears the flag again
-- before its own transaction commits.
CREATE TABLE IF NOT EXISTS maintenance_flag (
	key TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS policies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	version INTEGER NOT NULL,
	agent_id TEXT NOT NULL DEFAULT '',
	rules TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policies_name ON policies(name);
CREATE INDEX IF NOT EXISTS idx_policies_agent_id ON policies(agent_id);
CREATE INDEX IF NOT EXISTS idx_policies_active ON policies(agent_id, is_active);

CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	allowed_tools TEXT,
	policy_name TEXT,
	status TEXT NOT NULL,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	last_active_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS approval_requests (
	id TEXT PRIMARY KEY,
	trace_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	parameters TEXT,
	policy_name TEXT NOT NULL DEFAULT '',
	rule_name TEXT,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	resolved_at TIMESTAMP,
	resolved_by TEXT,
	reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_approval_status ON approval_requests(status);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
);
`

// InsertSchemaVersion records the applied schema version, idempotently.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads back the highest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

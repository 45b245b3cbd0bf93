// Package store defines the persistence contract of spec.md §4.4/§4.9:
// a core Store interface every backend must satisfy, plus optional
// capability interfaces (ApprovalStore, TenantScoped) a backend may also
// implement. Callers type-assert for the optional capabilities rather than
// depending on a single fat interface — the same polymorphism pattern the
// teacher uses to let SQLiteStorage and MemoryStorage both satisfy
// evidence.Storage (pkg/evidence/storage/sqlite.go, memory.go).
package store

import (
	"context"
	"time"

	"wardenhq/sentinel/pkg/agent"
	"wardenhq/sentinel/pkg/hashchain"
	"wardenhq/sentinel/pkg/policy"
)

// AuditRecord is one persisted, hash-chained decision event (spec.md §4.5).
type AuditRecord struct {
	ID              int64          `json:"id"`
	TraceID         string         `json:"traceId"`
	Timestamp       time.Time      `json:"timestamp"`
	AgentID         string         `json:"agentId"`
	Tool            string         `json:"tool"`
	Parameters      map[string]any `json:"parameters"`
	Result          string         `json:"result"`
	Reason          string         `json:"reason"`
	DurationMs      int64          `json:"durationMs"`
	FailureCategory string         `json:"failureCategory,omitempty"`
	PreviousHash    string         `json:"previousHash"`
	Hash            string         `json:"hash"`
}

// ToHashChainRecord projects the fields hashchain.Compute is defined over.
func (r AuditRecord) ToHashChainRecord() hashchain.Record {
	return hashchain.Record{
		TraceID:         r.TraceID,
		Timestamp:       r.Timestamp.UTC().Format(time.RFC3339Nano),
		AgentID:         r.AgentID,
		Tool:            r.Tool,
		Parameters:      r.Parameters,
		Result:          r.Result,
		Reason:          r.Reason,
		DurationMs:      r.DurationMs,
		FailureCategory: r.FailureCategory,
	}
}

// AuditQuery filters audit-record reads. Zero values mean "no constraint" on
// that field, per pkg/evidence/query/validator.go's ApplyDefaults pattern.
type AuditQuery struct {
	AgentID   string
	Tool      string
	Result    string
	Search    string
	StartTime *time.Time
	EndTime   *time.Time
	SortOrder string // "asc" or "desc", always ordered by id
	Limit     int
	Offset    int
}

// DefaultQueryLimit and MaxQueryLimit bound AuditQuery.Limit.
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 10000
)

// PolicyRecord is a persisted, versioned Policy.
type PolicyRecord struct {
	ID        int64  `json:"id"`
	Policy    policy.Policy
	IsActive  bool `json:"isActive"`
}

// Store is the persistence contract every backend satisfies.
type Store interface {
	// Audit log.
	AppendAudit(ctx context.Context, rec AuditRecord) (AuditRecord, error)
	QueryAudit(ctx context.Context, q AuditQuery) ([]AuditRecord, error)
	LatestHash(ctx context.Context) (string, error)
	StreamExport(ctx context.Context, q AuditQuery) (<-chan AuditRecord, <-chan error)

	// Policy CRUD and versioning.
	UpsertPolicy(ctx context.Context, p policy.Policy) (PolicyRecord, error)
	GetActivePolicy(ctx context.Context, agentID string) (*policy.Policy, error)
	ListPolicies(ctx context.Context, agentID string) ([]PolicyRecord, error)
	GetPolicyByID(ctx context.Context, id int64) (*PolicyRecord, error)
	PolicyHistory(ctx context.Context, name string) ([]PolicyRecord, error)
	DeletePolicy(ctx context.Context, id int64) error

	// Agent registry.
	RegisterAgent(ctx context.Context, a agent.Agent) (agent.Agent, error)
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error
	ListAgents(ctx context.Context) ([]agent.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

// ApprovalStore is an optional capability: backends that support the
// two-phase approval workflow (spec.md §4.9) implement it. Callers
// type-assert for it rather than requiring it on every Store.
type ApprovalStore interface {
	CreateApprovalRequest(ctx context.Context, req ApprovalRequest) (ApprovalRequest, error)
	GetApprovalRequest(ctx context.Context, id string) (*ApprovalRequest, error)
	ListApprovalRequests(ctx context.Context, status string) ([]ApprovalRequest, error)
	ResolveApprovalRequest(ctx context.Context, id string, resolution ApprovalResolution) (ApprovalRequest, error)
}

// ApprovalRequest and ApprovalResolution are declared here (rather than in
// pkg/approval) to keep the storage contract self-contained; pkg/approval
// imports these types instead of redefining them.
type ApprovalRequest struct {
	ID         string         `json:"id"`
	TraceID    string         `json:"traceId"`
	AgentID    string         `json:"agentId"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	PolicyName string         `json:"policyName"`
	RuleName   string         `json:"ruleName,omitempty"`
	Status     string         `json:"status"` // pending, granted, rejected, timeout
	CreatedAt  time.Time      `json:"createdAt"`
	ExpiresAt  time.Time      `json:"expiresAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
	ResolvedBy string         `json:"resolvedBy,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

type ApprovalResolution struct {
	Status     string
	ResolvedBy string
	Reason     string
}

// TenantScoped is an optional capability: multi-tenant backends return a
// Store narrowed to one tenant's rows. A single-tenant backend simply does
// not implement this interface.
type TenantScoped interface {
	ForTenant(tenantID string) Store
}

// Maintenance is an optional capability a backend implements to support
// retention pruning (spec.md §6). It is deliberately kept off the core
// Store interface: pruning is a privileged path distinct from the
// ordinary trigger-guarded audit write path, and only pkg/retention
// should hold a reference to it.
type Maintenance interface {
	// PruneAuditBefore permanently removes every audit record with a
	// timestamp strictly before cutoff and returns the count removed. On
	// a SQL backend this bypasses the append-only delete trigger for the
	// duration of one transaction; callers are expected to have already
	// archived anything they need to keep.
	PruneAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// InsertChainBoundary inserts rec with its previous-hash forced to
	// the genesis marker regardless of the current chain tail, restarting
	// the hash chain cleanly after a prune. rec.Result is expected to be
	// "retention-boundary".
	InsertChainBoundary(ctx context.Context, rec AuditRecord) (AuditRecord, error)
}

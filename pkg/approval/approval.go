// Package approval implements the two-phase human-approval workflow of
// spec.md §4.9: a pending record is created and later resolved by an
// optimistic conditional update, with timeout materialized lazily on
// read rather than swept by a background job.
//
// Grounded on pkg/evidence/retention/pruner.go + scheduler.go's "the
// expensive sweep only happens when something asks" philosophy,
// inverted here: instead of a cron sweep, the deadline check runs
// inline inside Get/List.
package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wardenhq/sentinel/pkg/audit"
	"wardenhq/sentinel/pkg/eventbus"
	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/store"
)

// DefaultTimeout is the approval window New uses when given a non-positive
// default timeout; a CreateRequest with zero Timeout gets the
// Coordinator's default (spec.md §4.9).
const DefaultTimeout = 3600 * time.Second

// Event types emitted by the coordinator.
const (
	EventRequested  = "approval.requested"
	EventGranted    = "approval.granted"
	EventRejected   = "approval.rejected"
	EventTimeout    = "approval.timeout"
	EventToolDenied = "tool_call.denied"
)

// Coordinator mediates approval requests against an optional persistence
// backend. A nil store means the underlying persistence layer does not
// expose approval operations; Create then fails secure per spec.md §4.9.
type Coordinator struct {
	store          store.ApprovalStore
	recorder       *audit.Recorder
	bus            *eventbus.Bus
	defaultTimeout time.Duration
}

// New builds a Coordinator. approvalStore may be nil.
func New(approvalStore store.ApprovalStore, recorder *audit.Recorder, bus *eventbus.Bus, defaultTimeout time.Duration) *Coordinator {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Coordinator{store: approvalStore, recorder: recorder, bus: bus, defaultTimeout: defaultTimeout}
}

// CreateRequest is everything the orchestrator knows at the approval
// interception point (spec.md §4.8 step 5).
type CreateRequest struct {
	TraceID    string
	AgentID    string
	Tool       string
	Parameters map[string]any
	PolicyName string
	RuleName   string
	Timeout    time.Duration
}

// Result is what the orchestrator returns to its caller when a decision is
// diverted into approval.
type Result struct {
	Allowed          bool
	RequiresApproval bool
	ApprovalID       string
	Deadline         time.Time
}

// Create persists a pending approval request and emits approval.requested.
// If no approval-capable store is configured, it fails secure: a
// tool_call.denied event is emitted and no audit write is attempted,
// preserving the "no DB → no approval" contract. If persistence of the
// pending record itself fails, the error propagates and no
// tool_call.allowed-equivalent event escapes.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (Result, error) {
	if c.store == nil {
		c.bus.Emit(ctx, eventbus.Event{
			Type:    EventToolDenied,
			TraceID: req.TraceID,
			Payload: map[string]any{
				"reason":          "approval infrastructure not available",
				"tool":            req.Tool,
				"agentId":         req.AgentID,
				"requiresApproval": true,
			},
		})
		return Result{Allowed: false, RequiresApproval: true}, nil
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	now := time.Now().UTC()
	deadline := now.Add(timeout)

	created, err := c.store.CreateApprovalRequest(ctx, store.ApprovalRequest{
		ID:         uuid.NewString(),
		TraceID:    req.TraceID,
		AgentID:    req.AgentID,
		Tool:       req.Tool,
		Parameters: req.Parameters,
		PolicyName: req.PolicyName,
		RuleName:   req.RuleName,
		Status:     "pending",
		CreatedAt:  now,
		ExpiresAt:  deadline,
	})
	if err != nil {
		return Result{}, gerr.New(gerr.CodeDatabaseRequired, "failed to persist approval request", nil).Wrap(err)
	}

	c.bus.Emit(ctx, eventbus.Event{
		Type:    EventRequested,
		TraceID: req.TraceID,
		Payload: map[string]any{
			"approvalId": created.ID,
			"tool":       created.Tool,
			"parameters": created.Parameters,
			"policyName": req.PolicyName,
			"ruleName":   req.RuleName,
			"deadline":   deadline,
		},
	})

	return Result{Allowed: false, RequiresApproval: true, ApprovalID: created.ID, Deadline: deadline}, nil
}

// Get reads one approval request, materializing a timeout transition if
// its deadline has passed and it is still pending.
func (c *Coordinator) Get(ctx context.Context, id string) (*store.ApprovalRequest, error) {
	if c.store == nil {
		return nil, gerr.New(gerr.CodeApprovalNotSupported, "approval infrastructure not available", nil)
	}
	req, err := c.store.GetApprovalRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.materializeTimeout(ctx, req)
}

// List reads approval requests matching status, materializing any
// newly-expired records before returning. Per spec.md §4.9, listing
// re-reads after resolving so the returned statuses are consistent.
func (c *Coordinator) List(ctx context.Context, status string) ([]store.ApprovalRequest, error) {
	if c.store == nil {
		return nil, gerr.New(gerr.CodeApprovalNotSupported, "approval infrastructure not available", nil)
	}
	reqs, err := c.store.ListApprovalRequests(ctx, status)
	if err != nil {
		return nil, err
	}

	anyMaterialized := false
	for i := range reqs {
		materialized, err := c.materializeTimeout(ctx, &reqs[i])
		if err != nil {
			return nil, err
		}
		if materialized.Status != reqs[i].Status {
			anyMaterialized = true
		}
	}
	if anyMaterialized {
		return c.store.ListApprovalRequests(ctx, status)
	}
	return reqs, nil
}

// Resolve applies a human (or timeout) decision via an optimistic
// conditional update. resolved is false when the record was no longer
// pending by the time the update ran — either a concurrent resolution won
// the race, or the deadline had already passed and was materialized as a
// timeout first.
func (c *Coordinator) Resolve(ctx context.Context, id, status, approver, comment string) (resolved bool, result store.ApprovalRequest, err error) {
	if c.store == nil {
		return false, store.ApprovalRequest{}, gerr.New(gerr.CodeApprovalNotSupported, "approval infrastructure not available", nil)
	}

	current, err := c.store.GetApprovalRequest(ctx, id)
	if err != nil {
		return false, store.ApprovalRequest{}, err
	}
	materialized, err := c.materializeTimeout(ctx, current)
	if err != nil {
		return false, store.ApprovalRequest{}, err
	}
	if materialized.Status != "pending" {
		return false, *materialized, nil
	}

	return c.resolveConditional(ctx, id, status, approver, comment)
}

// materializeTimeout resolves req to "timeout" if it is pending and past
// its deadline, returning the (possibly updated) record.
func (c *Coordinator) materializeTimeout(ctx context.Context, req *store.ApprovalRequest) (*store.ApprovalRequest, error) {
	if req.Status != "pending" || time.Now().UTC().Before(req.ExpiresAt) {
		return req, nil
	}
	_, resolved, err := c.resolveConditional(ctx, req.ID, "timeout", "", "")
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// resolveConditional performs the store's optimistic update, then on a
// successful transition emits the matching event and writes the audit
// record. The audit write is best-effort: a failure there is logged via
// an audit.write_failure event but never surfaces as an error here.
func (c *Coordinator) resolveConditional(ctx context.Context, id, status, approver, comment string) (bool, store.ApprovalRequest, error) {
	storeStatus := mapStatus(status)
	resolvedReq, err := c.store.ResolveApprovalRequest(ctx, id, store.ApprovalResolution{
		Status:     storeStatus,
		ResolvedBy: approver,
		Reason:     comment,
	})
	if err != nil {
		return false, store.ApprovalRequest{}, err
	}
	if resolvedReq.Status != storeStatus {
		return false, resolvedReq, nil
	}

	c.emitResolution(ctx, resolvedReq, approver, comment)
	c.writeAudit(ctx, resolvedReq)
	return true, resolvedReq, nil
}

func (c *Coordinator) emitResolution(ctx context.Context, req store.ApprovalRequest, approver, comment string) {
	eventType := map[string]string{"granted": EventGranted, "rejected": EventRejected, "timeout": EventTimeout}[req.Status]
	if eventType == "" {
		return
	}
	c.bus.Emit(ctx, eventbus.Event{
		Type:    eventType,
		TraceID: req.TraceID,
		Payload: map[string]any{
			"approvalId": req.ID,
			"tool":       req.Tool,
			"approver":   approver,
			"comment":    comment,
		},
	})
}

func (c *Coordinator) writeAudit(ctx context.Context, req store.ApprovalRequest) {
	result := "denied"
	failureCategory := ""
	if req.Status == "granted" {
		result = "allowed"
	} else if req.Status == "timeout" {
		failureCategory = string(gerr.CategoryApprovalTimeout)
	}

	_, err := c.recorder.Record(ctx, audit.Entry{
		TraceID:         req.TraceID,
		AgentID:         req.AgentID,
		Tool:            req.Tool,
		Parameters:      req.Parameters,
		Result:          result,
		Reason:          "approval " + req.Status,
		FailureCategory: failureCategory,
	})
	if err != nil {
		c.bus.Emit(ctx, eventbus.Event{
			Type:    "audit.write_failure",
			TraceID: req.TraceID,
			Payload: map[string]any{"context": "approval_resolution", "approvalId": req.ID},
		})
	}
}

// mapStatus translates the external resolution vocabulary
// (approved/rejected/timeout) to the stored status, matching the event
// names above (approval.granted, not approval.approved).
func mapStatus(external string) string {
	if external == "approved" {
		return "granted"
	}
	return external
}

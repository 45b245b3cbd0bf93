// Package orchestrator composes the governance core into the single
// externally-visible evaluate operation of spec.md §4.8: trace
// resolution, kill-switch short-circuit, policy resolution, decision,
// approval interception, event emission, and audit write, in that order.
//
// Grounded on pkg/evidence/recorder/recorder.go's composition style: a
// struct holding every collaborator it needs, one method that fans out to
// each in sequence, each side effect wrapped so its failure never escapes
// to the return value except where the spec says it must.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"wardenhq/sentinel/pkg/approval"
	"wardenhq/sentinel/pkg/audit"
	"wardenhq/sentinel/pkg/eventbus"
	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/killswitch"
	"wardenhq/sentinel/pkg/policy"
	"wardenhq/sentinel/pkg/store"
	"wardenhq/sentinel/pkg/trace"
)

// Event types emitted by the orchestrator's own steps (approval's events
// are emitted by pkg/approval).
const (
	EventToolAllowed  = "tool_call.allowed"
	EventToolDenied   = "tool_call.denied"
	EventAuditFailure = "audit.write_failure"
)

// Request is the input to Evaluate.
type Request struct {
	AgentID    string
	Tool       string
	Parameters map[string]any
	TraceID    string
}

// Result is the decision Evaluate returns.
type Result struct {
	Allowed          bool
	RequiresApproval bool
	ApprovalID       string
	Deadline         time.Time
	Reason           string
	TraceID          string
	AppliedRules     []policy.AppliedRule
}

// Orchestrator holds every collaborator evaluate needs for one tenant
// scope. The zero value is not usable; construct with New.
type Orchestrator struct {
	store           store.Store
	bus             *eventbus.Bus
	killSwitch      *killswitch.Switch
	recorder        *audit.Recorder
	approvals       *approval.Coordinator
	tenantID        string
	approvalTimeout time.Duration

	mu           sync.RWMutex
	inlinePolicy *policy.Policy
}

// New builds the root, untenanted Orchestrator.
func New(s store.Store, bus *eventbus.Bus, ks *killswitch.Switch, approvalTimeout time.Duration) *Orchestrator {
	recorder := audit.New(s)
	var approvalStore store.ApprovalStore
	if as, ok := s.(store.ApprovalStore); ok {
		approvalStore = as
	}
	return &Orchestrator{
		store:           s,
		bus:             bus,
		killSwitch:      ks,
		recorder:        recorder,
		approvals:       approval.New(approvalStore, recorder, bus, approvalTimeout),
		approvalTimeout: approvalTimeout,
	}
}

// SetPolicy pins an inline policy, bypassing persistence lookups in
// Evaluate. Publication is atomic: many concurrent Evaluate readers, one
// writer.
func (o *Orchestrator) SetPolicy(p *policy.Policy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inlinePolicy = p
}

// ClearPolicy removes any inline policy, reverting to persistence lookups.
func (o *Orchestrator) ClearPolicy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inlinePolicy = nil
}

func (o *Orchestrator) inlinePolicySnapshot() *policy.Policy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.inlinePolicy
}

// ForTenant returns an Orchestrator scoped to tenantID. It shares the
// event bus and kill-switch manager (their state is already per-tenant)
// but obtains its own persistence handle from the underlying store's
// TenantScoped capability, if any; when the store does not support tenant
// scoping, ForTenant is a no-op and returns an Orchestrator over the same
// store. The returned Orchestrator's inline policy is independent of its
// parent's.
func (o *Orchestrator) ForTenant(tenantID string) *Orchestrator {
	scopedStore := o.store
	if ts, ok := o.store.(store.TenantScoped); ok {
		scopedStore = ts.ForTenant(tenantID)
	}

	recorder := audit.New(scopedStore)
	var approvalStore store.ApprovalStore
	if as, ok := scopedStore.(store.ApprovalStore); ok {
		approvalStore = as
	}

	return &Orchestrator{
		store:           scopedStore,
		bus:             o.bus,
		killSwitch:      o.killSwitch,
		recorder:        recorder,
		approvals:       approval.New(approvalStore, recorder, o.bus, o.approvalTimeout),
		tenantID:        tenantID,
		approvalTimeout: o.approvalTimeout,
	}
}

// Evaluate runs the full decision pipeline of spec.md §4.8.
func (o *Orchestrator) Evaluate(ctx context.Context, req Request) (Result, error) {
	if req.AgentID == "" || req.Tool == "" {
		return Result{}, gerr.New(gerr.CodeInvalidRequest, "agentId and tool are required", nil)
	}

	traceID := trace.New(req.TraceID, "").TraceID

	if o.killSwitch.IsActive(o.tenantID) {
		return o.denyForKillSwitch(ctx, req, traceID), nil
	}

	p, fatal := o.resolvePolicy(ctx, req)
	if fatal {
		o.emit(ctx, EventToolDenied, traceID, map[string]any{
			"agentId": req.AgentID, "tool": req.Tool, "reason": "fail-secure",
		})
		return Result{Allowed: false, TraceID: traceID, Reason: "fail-secure"}, nil
	}

	decision := policy.Evaluate(p, policy.Request{
		AgentID: req.AgentID, Tool: req.Tool, Parameters: req.Parameters, TraceID: traceID,
	})

	if decision.Allowed && len(decision.AppliedRules) > 0 && decision.AppliedRules[0].Rule.RequireApproval {
		return o.interceptForApproval(ctx, req, traceID, p.Name, decision)
	}

	if decision.Allowed {
		o.emit(ctx, EventToolAllowed, traceID, map[string]any{
			"agentId": req.AgentID, "tool": req.Tool, "appliedRules": decision.AppliedRules,
		})
	} else {
		o.emit(ctx, EventToolDenied, traceID, map[string]any{
			"agentId": req.AgentID, "tool": req.Tool, "reason": decision.Reason, "appliedRules": decision.AppliedRules,
		})
	}

	o.writeAudit(ctx, traceID, req, decision)

	return Result{
		Allowed:      decision.Allowed,
		TraceID:      traceID,
		Reason:       decision.Reason,
		AppliedRules: decision.AppliedRules,
	}, nil
}

// denyForKillSwitch handles step 2: the policy layer is never consulted.
func (o *Orchestrator) denyForKillSwitch(ctx context.Context, req Request, traceID string) Result {
	global, tenant := o.killSwitch.GetStatus(o.tenantID)
	reason := global.Reason
	if o.tenantID != "" && tenant.Active {
		reason = tenant.Reason
	}
	if reason == "" {
		reason = "kill switch activated"
	}

	o.emit(ctx, EventToolDenied, traceID, map[string]any{
		"agentId": req.AgentID, "tool": req.Tool, "reason": reason, "killSwitch": true,
	})

	if _, err := o.recorder.Record(ctx, audit.Entry{
		TraceID: traceID, AgentID: req.AgentID, Tool: req.Tool, Parameters: req.Parameters,
		Result: "denied", Reason: reason,
	}); err != nil {
		o.emit(ctx, EventAuditFailure, traceID, map[string]any{"context": "killswitch_denial"})
	}

	return Result{Allowed: false, TraceID: traceID, Reason: reason}
}

// resolvePolicy implements step 3. fatal=true means persistence failed and
// the caller must deny without attempting an audit write.
func (o *Orchestrator) resolvePolicy(ctx context.Context, req Request) (p *policy.Policy, fatal bool) {
	if inline := o.inlinePolicySnapshot(); inline != nil {
		return inline, false
	}

	active, err := o.store.GetActivePolicy(ctx, req.AgentID)
	if err != nil {
		return nil, true
	}
	if active == nil {
		return policy.DefaultAllowAll(), false
	}
	return active, false
}

// interceptForApproval implements step 5.
func (o *Orchestrator) interceptForApproval(ctx context.Context, req Request, traceID, policyName string, decision policy.Decision) (Result, error) {
	winner := decision.AppliedRules[0].Rule
	result, err := o.approvals.Create(ctx, approval.CreateRequest{
		TraceID: traceID, AgentID: req.AgentID, Tool: req.Tool, Parameters: req.Parameters,
		PolicyName: policyName, RuleName: winner.Name,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Allowed: result.Allowed, RequiresApproval: result.RequiresApproval,
		ApprovalID: result.ApprovalID, Deadline: result.Deadline, TraceID: traceID,
		AppliedRules: decision.AppliedRules,
	}, nil
}

// writeAudit implements step 7: a write failure is non-fatal.
func (o *Orchestrator) writeAudit(ctx context.Context, traceID string, req Request, decision policy.Decision) {
	failureCategory := ""
	result := "denied"
	if decision.Allowed {
		result = "allowed"
	} else {
		failureCategory = string(gerr.CategoryPolicyDenial)
	}

	if _, err := o.recorder.Record(ctx, audit.Entry{
		TraceID: traceID, AgentID: req.AgentID, Tool: req.Tool, Parameters: req.Parameters,
		Result: result, Reason: decision.Reason, FailureCategory: failureCategory,
	}); err != nil {
		o.emit(ctx, EventAuditFailure, traceID, map[string]any{"context": "policy_evaluation"})
	}
}

func (o *Orchestrator) emit(ctx context.Context, eventType, traceID string, payload map[string]any) {
	if o.tenantID != "" {
		payload["tenantId"] = o.tenantID
	}
	o.bus.Emit(ctx, eventbus.Event{Type: eventType, TraceID: traceID, Payload: payload})
}

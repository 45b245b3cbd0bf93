package orchestrator

import (
	"context"
	"testing"
	"time"

	"wardenhq/sentinel/pkg/eventbus"
	"wardenhq/sentinel/pkg/killswitch"
	"wardenhq/sentinel/pkg/policy"
	"wardenhq/sentinel/pkg/store"
	"wardenhq/sentinel/pkg/store/memory"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *memory.Store, *eventbus.Bus) {
	t.Helper()
	mem := memory.New()
	bus := eventbus.New(nil)
	ks := killswitch.New(bus)
	return New(mem, bus, ks, time.Hour), mem, bus
}

func waitFor(t *testing.T, ch <-chan eventbus.Event) eventbus.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return eventbus.Event{}
	}
}

func subscribe(bus *eventbus.Bus, eventType string) <-chan eventbus.Event {
	ch := make(chan eventbus.Event, 4)
	bus.On(eventType, func(ctx context.Context, evt eventbus.Event) { ch <- evt })
	return ch
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	if _, err := o.Evaluate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected an error for an empty request")
	}
}

func TestEvaluateDefaultAllowAllWhenNoPolicyConfigured(t *testing.T) {
	o, mem, bus := newTestOrchestrator(t)
	ch := subscribe(bus, EventToolAllowed)

	result, err := o.Evaluate(context.Background(), Request{AgentID: "a1", Tool: "file_read"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatalf("expected the zero-configuration default-allow-all path to allow, got %+v", result)
	}
	waitFor(t, ch)

	audits, err := mem.QueryAudit(context.Background(), store.AuditQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(audits) != 1 || audits[0].Result != "allowed" {
		t.Fatalf("unexpected audit trail: %+v", audits)
	}
}

func TestEvaluateUsesInlinePolicy(t *testing.T) {
	o, _, bus := newTestOrchestrator(t)
	ch := subscribe(bus, EventToolDenied)

	o.SetPolicy(&policy.Policy{
		Name: "p", Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectDeny, Reason: "blocked by inline policy"}},
	})

	result, err := o.Evaluate(context.Background(), Request{AgentID: "a1", Tool: "file_write"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatalf("expected inline deny policy to win")
	}
	evt := waitFor(t, ch)
	if evt.Payload["reason"] != "blocked by inline policy" {
		t.Fatalf("unexpected denial payload: %+v", evt.Payload)
	}
}

func TestEvaluateKillSwitchShortCircuitsBeforePolicy(t *testing.T) {
	o, mem, bus := newTestOrchestrator(t)
	ch := subscribe(bus, EventToolDenied)

	o.SetPolicy(&policy.Policy{Name: "p", Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectAllow}}})
	o.killSwitch.ActivateGlobal(context.Background(), "incident response", "ops")

	result, err := o.Evaluate(context.Background(), Request{AgentID: "a1", Tool: "file_write"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatalf("expected kill switch to deny despite an allow-all inline policy")
	}
	evt := waitFor(t, ch)
	if evt.Payload["killSwitch"] != true {
		t.Fatalf("expected killSwitch:true in denial payload, got %+v", evt.Payload)
	}

	audits, err := mem.QueryAudit(context.Background(), store.AuditQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(audits) != 1 || audits[0].Reason != "incident response" {
		t.Fatalf("unexpected audit trail: %+v", audits)
	}
}

func TestEvaluatePersistedActivePolicyIsUsedWhenNoInline(t *testing.T) {
	o, mem, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := mem.UpsertPolicy(ctx, policy.Policy{
		Name: "p", AgentID: "a1", Version: 1,
		Rules: []policy.Rule{{ToolPattern: "file_delete", Effect: policy.EffectDeny}},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := o.Evaluate(ctx, Request{AgentID: "a1", Tool: "file_delete"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatalf("expected the persisted policy's deny rule to apply")
	}
}

func TestEvaluateDivertsToApprovalWithoutEmittingAllowed(t *testing.T) {
	o, mem, bus := newTestOrchestrator(t)
	ctx := context.Background()

	allowedCh := subscribe(bus, EventToolAllowed)
	requestedCh := subscribe(bus, "approval.requested")

	o.SetPolicy(&policy.Policy{
		Name: "p", Rules: []policy.Rule{{ToolPattern: "file_delete", Effect: policy.EffectAllow, RequireApproval: true, Name: "r1"}},
	})

	result, err := o.Evaluate(ctx, Request{AgentID: "a1", Tool: "file_delete"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed || !result.RequiresApproval || result.ApprovalID == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	waitFor(t, requestedCh)

	select {
	case <-allowedCh:
		t.Fatalf("tool_call.allowed must not be emitted while approval is pending")
	case <-time.After(50 * time.Millisecond):
	}

	pending, err := mem.ListApprovalRequests(ctx, "pending")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly 1 pending approval request, got %d", len(pending))
	}
	if pending[0].PolicyName != "p" || pending[0].RuleName != "r1" {
		t.Fatalf("expected the resolved policy/rule name on the approval request, got %+v", pending[0])
	}
}

func TestForTenantIsolatesInlinePolicyButSharesBus(t *testing.T) {
	o, _, bus := newTestOrchestrator(t)
	tenant := o.ForTenant("tenant-a")

	o.SetPolicy(&policy.Policy{Name: "parent", Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectDeny}}})
	tenant.SetPolicy(&policy.Policy{Name: "child", Rules: []policy.Rule{{ToolPattern: "*", Effect: policy.EffectAllow}}})

	ch := subscribe(bus, EventToolAllowed)

	result, err := tenant.Evaluate(context.Background(), Request{AgentID: "a1", Tool: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatalf("expected the tenant-scoped policy to be independent of the parent's")
	}
	evt := waitFor(t, ch)
	if evt.Payload["tenantId"] != "tenant-a" {
		t.Fatalf("expected the event to carry the tenant id, got %+v", evt.Payload)
	}
}

func TestEvaluateReusesCallerSuppliedTraceID(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	traceID := "4bf92f3577b34da6a3ce929d0e0e4736"
	result, err := o.Evaluate(context.Background(), Request{AgentID: "a1", Tool: "t", TraceID: traceID})
	if err != nil {
		t.Fatal(err)
	}
	if result.TraceID != traceID {
		t.Fatalf("expected the caller-supplied trace id to be reused, got %s", result.TraceID)
	}
}

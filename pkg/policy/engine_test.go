package policy

import (
	"reflect"
	"testing"
)

func ruleAllow(pattern string) Rule {
	return Rule{ToolPattern: pattern, Effect: EffectAllow, Reason: "allowed by " + pattern}
}

func ruleDeny(pattern string) Rule {
	return Rule{ToolPattern: pattern, Effect: EffectDeny, Reason: "denied by " + pattern}
}

// Invariant 1: determinism. Two evaluations of the same (policy, request)
// with the same caller-supplied trace-id produce byte-identical decisions.
func TestEvaluateDeterministic(t *testing.T) {
	p := &Policy{Name: "p", Rules: []Rule{ruleAllow("*"), ruleDeny("file_delete")}}
	req := Request{Tool: "file_delete", TraceID: "abc"}

	d1 := Evaluate(p, req)
	d2 := Evaluate(p, req)

	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("Evaluate is not deterministic:\n%+v\n%+v", d1, d2)
	}
}

// Invariant 2: fail-secure floor. Nil policy or a malformed rule list denies.
func TestEvaluateFailSecureFloor(t *testing.T) {
	cases := []struct {
		name string
		p    *Policy
	}{
		{"nil policy", nil},
		{"nil rules", &Policy{Name: "p", Rules: nil}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.p, Request{Tool: "anything", TraceID: "t"})
			if d.Allowed {
				t.Fatalf("expected deny, got allow: %+v", d)
			}
			if d.Reason == "" {
				t.Fatalf("expected a reason to be set")
			}
		})
	}
}

// A malformed operand (e.g. "in" against a non-slice) must fail closed
// rather than matching or escaping as an error.
func TestEvaluateFailsClosedOnMalformedOperand(t *testing.T) {
	p := &Policy{Name: "p", Rules: []Rule{
		{ToolPattern: "*", Effect: EffectAllow, Condition: Condition{
			"x": {"in": "not-a-slice-but-also-not-nil"},
		}},
	}}
	d := Evaluate(p, Request{Tool: "t", Parameters: map[string]any{"x": 1}, TraceID: "t"})
	if d.Allowed {
		t.Fatalf("expected deny when condition matching can't establish a match")
	}
}

// Evaluate's own recover() is a defensive floor: nothing in this package
// currently panics, but a nil map access on a future code path must still
// resolve to deny rather than crash the caller.
func TestEvaluateNilConditionDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Evaluate must not let a panic escape: %v", r)
		}
	}()
	var nilCond Condition
	p := &Policy{Name: "p", Rules: []Rule{
		{ToolPattern: "*", Effect: EffectAllow, Condition: nilCond},
	}}
	Evaluate(p, Request{Tool: "t", TraceID: "t"})
}

// Invariant 3: specificity is monotone — an exact-tool rule always outranks
// a wildcard rule regardless of declaration order.
func TestSpecificityMonotoneOrderIndependent(t *testing.T) {
	forward := &Policy{Name: "p", Rules: []Rule{ruleAllow("*"), ruleDeny("file_delete")}}
	backward := &Policy{Name: "p", Rules: []Rule{ruleDeny("file_delete"), ruleAllow("*")}}

	req := Request{Tool: "file_delete", TraceID: "t"}
	df := Evaluate(forward, req)
	db := Evaluate(backward, req)

	if df.Allowed || db.Allowed {
		t.Fatalf("expected exact deny to win over wildcard allow regardless of order: %+v %+v", df, db)
	}
}

// Invariant 4: tie-break direction. At equal specificity, deny beats allow.
func TestTieBreakDenyBeatsAllow(t *testing.T) {
	p := &Policy{Name: "p", Rules: []Rule{ruleAllow("file_read"), ruleDeny("file_read")}}
	d := Evaluate(p, Request{Tool: "file_read", TraceID: "t"})
	if d.Allowed {
		t.Fatalf("expected deny to win the tie at equal specificity, got %+v", d)
	}
}

// Scenario A: exact match allow, no wildcard competing.
func TestScenarioExactAllow(t *testing.T) {
	p := &Policy{Name: "p", Rules: []Rule{ruleAllow("file_read")}}
	d := Evaluate(p, Request{Tool: "file_read", TraceID: "t"})
	if !d.Allowed {
		t.Fatalf("expected allow, got %+v", d)
	}
}

// Scenario B: specificity beats wildcard, order-independent (both orders
// checked explicitly, distinct from the monotonicity invariant test above
// by pairing an exact allow with a wildcard deny instead of an exact deny
// with a wildcard allow).
func TestScenarioSpecificityBeatsWildcard(t *testing.T) {
	a := &Policy{Name: "p", Rules: []Rule{ruleDeny("*"), ruleAllow("file_read")}}
	b := &Policy{Name: "p", Rules: []Rule{ruleAllow("file_read"), ruleDeny("*")}}

	req := Request{Tool: "file_read", TraceID: "t"}
	da := Evaluate(a, req)
	db := Evaluate(b, req)

	if !da.Allowed || !db.Allowed {
		t.Fatalf("expected exact allow to beat wildcard deny in both orders: %+v %+v", da, db)
	}
}

// Scenario C: a condition restricts a path — deny writes under /etc/, allow
// writes under /tmp/.
func TestScenarioConditionRestrictsPath(t *testing.T) {
	p := &Policy{Name: "p", Rules: []Rule{
		{
			ToolPattern: "file_write",
			Effect:      EffectDeny,
			Condition:   Condition{"path": {"startsWith": "/etc/"}},
			Reason:      "system paths are protected",
		},
		ruleAllow("file_write"),
	}}

	denied := Evaluate(p, Request{Tool: "file_write", Parameters: map[string]any{"path": "/etc/passwd"}, TraceID: "t"})
	if denied.Allowed {
		t.Fatalf("expected /etc/ write to be denied: %+v", denied)
	}

	allowed := Evaluate(p, Request{Tool: "file_write", Parameters: map[string]any{"path": "/tmp/x"}, TraceID: "t"})
	if !allowed.Allowed {
		t.Fatalf("expected /tmp/x write to be allowed: %+v", allowed)
	}
}

func TestToolMatchesWildcardAndExact(t *testing.T) {
	if !toolMatches(WildcardTool, "anything") {
		t.Fatalf("wildcard must match any tool")
	}
	if !toolMatches("file_read", "file_read") {
		t.Fatalf("exact pattern must match identical tool")
	}
	if toolMatches("file_read", "file_write") {
		t.Fatalf("exact pattern must not match a different tool")
	}
}

func TestSpecificityOf(t *testing.T) {
	if specificityOf(Rule{ToolPattern: "*"}) != specificityWildcard {
		t.Fatalf("wildcard rule should be specificityWildcard")
	}
	if specificityOf(Rule{ToolPattern: "t"}) != specificityExactNoCondition {
		t.Fatalf("exact rule with no condition should be specificityExactNoCondition")
	}
	withCond := Rule{ToolPattern: "t", Condition: Condition{"a": {"equals": 1}}}
	if specificityOf(withCond) != specificityExactWithCondition {
		t.Fatalf("exact rule with condition should be specificityExactWithCondition")
	}
}

func TestDefaultAllowAllMatchesAnyTool(t *testing.T) {
	d := Evaluate(DefaultAllowAll(), Request{Tool: "whatever", TraceID: "t"})
	if !d.Allowed {
		t.Fatalf("default-allow-all must allow any tool, got %+v", d)
	}
}

func TestNoMatchingRuleDenies(t *testing.T) {
	p := &Policy{Name: "scoped", Rules: []Rule{ruleAllow("file_read")}}
	d := Evaluate(p, Request{Tool: "file_write", TraceID: "t"})
	if d.Allowed {
		t.Fatalf("expected deny when no rule matches, got %+v", d)
	}
	if len(d.AppliedRules) != 0 {
		t.Fatalf("expected no applied rules, got %+v", d.AppliedRules)
	}
}

package policy

import "testing"

func TestMatchConditionEmptyAlwaysMatches(t *testing.T) {
	if !matchCondition(nil, nil) {
		t.Fatalf("nil condition must match")
	}
	if !matchCondition(Condition{}, map[string]any{"a": 1}) {
		t.Fatalf("empty condition must match regardless of params")
	}
}

func TestMatchConditionNonEmptyAgainstNilParamsFails(t *testing.T) {
	cond := Condition{"a": {"equals": 1}}
	if matchCondition(cond, nil) {
		t.Fatalf("non-empty condition against nil params must fail closed")
	}
}

func TestOperatorsAllFailSecureOnMissingField(t *testing.T) {
	ops := []string{"equals", "notEquals", "startsWith", "endsWith", "contains", "gt", "lt", "gte", "lte", "in", "matches"}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			if evaluateOperator(op, nil, false, "x") {
				t.Fatalf("operator %q must fail closed when field is absent", op)
			}
		})
	}
}

func TestEqualsNumericCrossType(t *testing.T) {
	if !evaluateOperator("equals", int(5), true, float64(5)) {
		t.Fatalf("equals must compare int and float64 numerically")
	}
}

func TestNotEqualsRequiresPresence(t *testing.T) {
	if evaluateOperator("notEquals", nil, false, "x") {
		t.Fatalf("notEquals on an absent field must fail closed, not vacuously match")
	}
	if !evaluateOperator("notEquals", "y", true, "x") {
		t.Fatalf("notEquals should hold when present value differs")
	}
}

func TestStringOperators(t *testing.T) {
	if !evaluateOperator("startsWith", "/etc/passwd", true, "/etc/") {
		t.Fatalf("startsWith should match prefix")
	}
	if !evaluateOperator("endsWith", "file.txt", true, ".txt") {
		t.Fatalf("endsWith should match suffix")
	}
	if !evaluateOperator("contains", "hello world", true, "lo wo") {
		t.Fatalf("contains should match substring")
	}
	if evaluateOperator("startsWith", 5, true, "/etc/") {
		t.Fatalf("startsWith on a non-string actual must fail closed")
	}
}

func TestComparisonOperators(t *testing.T) {
	if !evaluateOperator("gt", 5.0, true, 3.0) || evaluateOperator("gt", 3.0, true, 5.0) {
		t.Fatalf("gt must be strict greater-than")
	}
	if !evaluateOperator("gte", 5.0, true, 5.0) {
		t.Fatalf("gte must include equality")
	}
	if !evaluateOperator("lte", 5.0, true, 5.0) {
		t.Fatalf("lte must include equality")
	}
	if evaluateOperator("gt", "abc", true, 1.0) {
		t.Fatalf("gt on a non-numeric actual must fail closed")
	}
}

func TestInOperator(t *testing.T) {
	if !evaluateOperator("in", "b", true, []any{"a", "b", "c"}) {
		t.Fatalf("in should find a present member")
	}
	if evaluateOperator("in", "z", true, []any{"a", "b", "c"}) {
		t.Fatalf("in should not find an absent member")
	}
	if evaluateOperator("in", "a", true, "not-a-slice") {
		t.Fatalf("in against a non-slice expected must fail closed")
	}
}

func TestMatchesOperator(t *testing.T) {
	if !evaluateOperator("matches", "agent-42", true, `^agent-\d+$`) {
		t.Fatalf("matches should accept a matching value")
	}
	if evaluateOperator("matches", "agent-x", true, `^agent-\d+$`) {
		t.Fatalf("matches should reject a non-matching value")
	}
}

func TestMatchesRejectsOversizedPattern(t *testing.T) {
	long := make([]byte, maxMatchesOperandLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if evaluateOperator("matches", "aaa", true, string(long)) {
		t.Fatalf("matches must reject a pattern over the length guard")
	}
}

func TestMatchesRejectsCatastrophicShape(t *testing.T) {
	catastrophic := []string{`(a+)+$`, `(a*)*b`, `([a-z]+)*c`}
	for _, p := range catastrophic {
		if !isCatastrophicPattern(p) {
			t.Fatalf("expected %q to be flagged as catastrophic", p)
		}
	}
	if isCatastrophicPattern(`^agent-\d+$`) {
		t.Fatalf("a benign anchored pattern must not be flagged")
	}
}

func TestMatchesRejectsInvalidRegex(t *testing.T) {
	if evaluateOperator("matches", "x", true, `(unclosed`) {
		t.Fatalf("an invalid regex must fail closed, not panic")
	}
}

func TestUnknownOperatorFailsClosed(t *testing.T) {
	if evaluateOperator("nonexistentOp", "x", true, "x") {
		t.Fatalf("unknown operator must fail closed")
	}
}

func TestValidateConditionDetectsUnknownOperators(t *testing.T) {
	cond := Condition{"path": {"startsWith": "/etc/", "bogus": 1}}
	invalid := ValidateCondition(cond)
	if len(invalid) != 1 || invalid[0] != "bogus" {
		t.Fatalf("expected to detect exactly [bogus], got %v", invalid)
	}
	clean := Condition{"path": {"startsWith": "/etc/"}}
	if invalid := ValidateCondition(clean); len(invalid) != 0 {
		t.Fatalf("expected no invalid operators, got %v", invalid)
	}
}

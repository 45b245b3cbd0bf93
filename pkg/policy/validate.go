package policy

import (
	"fmt"

	"wardenhq/sentinel/pkg/gerr"
)

// Validate checks a Policy's structural invariants (spec.md §3): rule count
// bounds, a legal tool-pattern per rule, and a closed operator set in every
// condition. It does not evaluate the policy — Evaluate is the only
// authority on runtime semantics.
func Validate(p *Policy) error {
	if p == nil {
		return gerr.New(gerr.CodeInvalidPolicy, "policy is nil", nil)
	}
	if p.Name == "" {
		return gerr.New(gerr.CodeInvalidPolicy, "policy name is required", nil)
	}
	if len(p.Rules) < MinRules || len(p.Rules) > MaxRules {
		return gerr.New(gerr.CodeInvalidPolicy, fmt.Sprintf(
			"policy %q must have between %d and %d rules, got %d",
			p.Name, MinRules, MaxRules, len(p.Rules)), nil)
	}
	for i, rule := range p.Rules {
		if rule.ToolPattern == "" {
			return gerr.New(gerr.CodeInvalidPolicy, fmt.Sprintf(
				"policy %q rule %d: tool pattern is required", p.Name, i), nil)
		}
		if rule.Effect != EffectAllow && rule.Effect != EffectDeny {
			return gerr.New(gerr.CodeInvalidPolicy, fmt.Sprintf(
				"policy %q rule %d: effect must be allow or deny, got %q", p.Name, i, rule.Effect), nil)
		}
		if invalid := ValidateCondition(rule.Condition); len(invalid) > 0 {
			return gerr.New(gerr.CodeInvalidPolicy, fmt.Sprintf(
				"policy %q rule %d: unknown operator(s) %v", p.Name, i, invalid), nil)
		}
	}
	return nil
}

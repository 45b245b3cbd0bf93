package policy

import "sort"

// specificity levels, spec.md §4.2 step 3.
const (
	specificityWildcard           = 0
	specificityExactNoCondition   = 1
	specificityExactWithCondition = 2
)

// Evaluate is the pure policy-engine function of spec.md §4.2. It never
// panics: a nil policy, a malformed rule list, or a condition evaluation
// anomaly all fall through to the fail-secure deny floor.
func Evaluate(p *Policy, req Request) (decision Decision) {
	decision.TraceID = req.TraceID

	defer func() {
		if r := recover(); r != nil {
			decision.Allowed = false
			decision.Reason = "evaluation failed"
			decision.AppliedRules = nil
		}
	}()

	if p == nil || p.Rules == nil {
		decision.Allowed = false
		decision.Reason = "no policy"
		return decision
	}

	matches := make([]AppliedRule, 0, len(p.Rules))
	for _, rule := range p.Rules {
		if !toolMatches(rule.ToolPattern, req.Tool) {
			continue
		}
		if !matchCondition(rule.Condition, req.Parameters) {
			continue
		}
		matches = append(matches, AppliedRule{
			Rule:        rule,
			Specificity: specificityOf(rule),
		})
	}

	sortMatches(matches)
	decision.AppliedRules = matches

	if len(matches) == 0 {
		decision.Allowed = false
		decision.Reason = "no rule in policy " + p.Name + " matches tool " + req.Tool
		return decision
	}

	winner := matches[0].Rule
	decision.Allowed = winner.Effect == EffectAllow
	decision.Reason = winner.Reason
	return decision
}

func toolMatches(pattern, tool string) bool {
	return pattern == WildcardTool || pattern == tool
}

func hasEffectiveCondition(rule Rule) bool {
	for _, ops := range rule.Condition {
		if len(ops) > 0 {
			return true
		}
	}
	return false
}

func specificityOf(rule Rule) int {
	if rule.ToolPattern == WildcardTool {
		return specificityWildcard
	}
	if hasEffectiveCondition(rule) {
		return specificityExactWithCondition
	}
	return specificityExactNoCondition
}

// sortMatches orders matches by (specificity descending, deny before allow
// at equal specificity). The tie-break is intentional: at equal
// specificity, the fail-secure choice is the more restrictive one
// (spec.md §4.2 step 4, invariant 4).
func sortMatches(matches []AppliedRule) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Specificity != matches[j].Specificity {
			return matches[i].Specificity > matches[j].Specificity
		}
		iDeny := matches[i].Rule.Effect == EffectDeny
		jDeny := matches[j].Rule.Effect == EffectDeny
		if iDeny != jDeny {
			return iDeny
		}
		return false
	})
}

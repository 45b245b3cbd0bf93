package policy

import (
	"reflect"
	"regexp"
	"strings"
)

// operatorNames is the closed set of eleven operators spec.md §3/§4.3
// allows. Anything else is rejected by Validate and evaluates to false at
// runtime.
var operatorNames = map[string]bool{
	"equals":     true,
	"notEquals":  true,
	"startsWith": true,
	"endsWith":   true,
	"contains":   true,
	"gt":         true,
	"lt":         true,
	"gte":        true,
	"lte":        true,
	"in":         true,
	"matches":    true,
}

// maxMatchesOperandLen is the ReDoS length guard for the `matches` operator
// (spec.md §4.3).
const maxMatchesOperandLen = 200

// matchCondition evaluates cond against parameters. A missing or empty
// condition evaluates to true — the guard on specificity, not emptiness. A
// non-empty condition against an absent parameter map evaluates to false.
// Every operator fails closed to false; this function never returns an
// error because the fail-secure contract (spec.md §4.2 step 1) requires the
// engine to treat any evaluation anomaly as a non-match, not a panic that
// propagates past the caller.
func matchCondition(cond Condition, params map[string]any) bool {
	if len(cond) == 0 {
		return true
	}
	if params == nil {
		return false
	}
	for field, ops := range cond {
		actual, present := params[field]
		for op, expected := range ops {
			if !evaluateOperator(op, actual, present, expected) {
				return false
			}
		}
	}
	return true
}

func evaluateOperator(op string, actual any, present bool, expected any) bool {
	switch op {
	case "equals":
		return present && deepEqual(actual, expected)
	case "notEquals":
		// Fail-secure: a missing parameter can never satisfy notEquals.
		return present && !deepEqual(actual, expected)
	case "startsWith":
		a, aok := toStringStrict(actual)
		e, eok := toStringStrict(expected)
		return present && aok && eok && strings.HasPrefix(a, e)
	case "endsWith":
		a, aok := toStringStrict(actual)
		e, eok := toStringStrict(expected)
		return present && aok && eok && strings.HasSuffix(a, e)
	case "contains":
		a, aok := toStringStrict(actual)
		e, eok := toStringStrict(expected)
		return present && aok && eok && strings.Contains(a, e)
	case "gt":
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		return present && aok && eok && a > e
	case "lt":
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		return present && aok && eok && a < e
	case "gte":
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		return present && aok && eok && a >= e
	case "lte":
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		return present && aok && eok && a <= e
	case "in":
		return present && isInArray(actual, expected)
	case "matches":
		return present && matchesRegex(actual, expected)
	default:
		// Unknown operator: fail-secure.
		return false
	}
}

func deepEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toStringStrict(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isInArray(actual, expected any) bool {
	val := reflect.ValueOf(expected)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < val.Len(); i++ {
		if deepEqual(actual, val.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func matchesRegex(actual, expected any) bool {
	s, ok := actual.(string)
	if !ok {
		return false
	}
	pattern, ok := expected.(string)
	if !ok {
		return false
	}
	if len(pattern) > maxMatchesOperandLen {
		return false
	}
	if isCatastrophicPattern(pattern) {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// catastrophicShapes are static textual shapes known to cause exponential
// backtracking in a backtracking regex engine: nested quantifiers like
// (a+)+, (x+x+)+y, (.*)*b, ([a-z]+)*.
var catastrophicShapes = []*regexp.Regexp{
	regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*]`),
	regexp.MustCompile(`\([^)]*\)\*[^)]*\)[*+]`),
}

// isCatastrophicPattern applies a conservative static check for nested
// quantifier shapes known to cause catastrophic backtracking. It never
// compiles or executes the candidate pattern against user input.
func isCatastrophicPattern(pattern string) bool {
	for _, re := range catastrophicShapes {
		if re.MatchString(pattern) {
			return true
		}
	}
	return false
}

// ValidateCondition reports whether every operator referenced by cond is in
// the closed eleven-operator set. Used at policy-write time; runtime
// evaluation never rejects, it fails to false instead.
func ValidateCondition(cond Condition) []string {
	var invalid []string
	for _, ops := range cond {
		for op := range ops {
			if !operatorNames[op] {
				invalid = append(invalid, op)
			}
		}
	}
	return invalid
}

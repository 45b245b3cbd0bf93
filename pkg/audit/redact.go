package audit

import "strings"

// sensitiveKeyFragments mirrors pkg/telemetry/logging/redactor.go's
// isSensitiveKey list, narrowed to the fragments meaningful for tool-call
// parameters rather than HTTP/log fields.
var sensitiveKeyFragments = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"auth", "authorization",
	"ssn", "social_security",
	"credit_card", "creditcard",
	"private_key", "privatekey",
}

// RedactParameters returns a copy of params with sensitive-looking values
// masked by key name. Non-sensitive values pass through unchanged; nested
// maps are redacted recursively so a parameter like {"auth": {"token":
// "..."}} still gets caught.
func RedactParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if isSensitiveKey(k) {
			out[k] = redactValue(v)
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = RedactParameters(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func redactValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return "***"
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}

package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// # Attribute Keys
//
// Standard attribute keys follow OpenTelemetry semantic conventions:
//   - http.*: HTTP-related attributes
//   - rpc.*: RPC-related attributes
//   - db.*: Database-related attributes
//
// Custom attribute keys use the "sentinel.*" namespace:
//   - sentinel.agent_id: the agent the tool call was evaluated for
//   - sentinel.tool: the tool name being invoked
//   - sentinel.decision.*: decision outcome attributes

// Common attribute keys used throughout the system
const (
	// Agent and tool attributes
	AttrAgentID = "sentinel.agent_id"
	AttrTool    = "sentinel.tool"

	// Request attributes
	AttrRequestID = "sentinel.request_id"
	AttrUser      = "sentinel.user"
	AttrTeam      = "sentinel.team"
	AttrSession   = "sentinel.session"

	// Decision attributes
	AttrDecisionAction = "sentinel.decision.action"
	AttrDecisionReason = "sentinel.decision.reason"

	// Policy attributes
	AttrPolicyID     = "sentinel.policy.id"
	AttrPolicyRule   = "sentinel.policy.rule"
	AttrPolicyAction = "sentinel.policy.action"

	// Approval attributes
	AttrApprovalID     = "sentinel.approval.id"
	AttrApprovalStatus = "sentinel.approval.status"

	// Kill switch attributes
	AttrKillSwitchScope = "sentinel.kill_switch.scope"

	// Cache attributes
	AttrCacheHit  = "sentinel.cache.hit"
	AttrCacheName = "sentinel.cache.name"

	// Error attributes
	AttrErrorType    = "sentinel.error.type"
	AttrErrorMessage = "error.message"
	AttrErrorStack   = "error.stack"

	// Performance attributes
	AttrDuration   = "sentinel.duration_ms"
	AttrRetryCount = "sentinel.retry_count"
)

// SetAgentAttributes sets agent/tool attributes on a span.
//
// Example:
//
//	SetAgentAttributes(span, "agent-42", "send_email")
func SetAgentAttributes(span trace.Span, agentID, tool string) {
	span.SetAttributes(
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrTool, tool),
	)
}

// SetRequestAttributes sets request-related attributes on a span.
//
// Example:
//
//	SetRequestAttributes(span, "req-123", "user@example.com")
func SetRequestAttributes(span trace.Span, requestID, user string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
	}

	if user != "" {
		attrs = append(attrs, attribute.String(AttrUser, user))
	}

	span.SetAttributes(attrs...)
}

// SetDecisionAttributes sets the decision outcome and its reason on a span.
//
// Example:
//
//	SetDecisionAttributes(span, "deny", "matched rule deny-prod-db-writes")
func SetDecisionAttributes(span trace.Span, action, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrDecisionAction, action),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String(AttrDecisionReason, reason))
	}
	span.SetAttributes(attrs...)
}

// SetPolicyAttributes sets policy-related attributes on a span.
//
// Example:
//
//	SetPolicyAttributes(span, "agent-42-policy", "deny-prod-db-writes", "deny")
func SetPolicyAttributes(span trace.Span, policyID, ruleID, action string) {
	span.SetAttributes(
		attribute.String(AttrPolicyID, policyID),
		attribute.String(AttrPolicyRule, ruleID),
		attribute.String(AttrPolicyAction, action),
	)
}

// SetApprovalAttributes sets approval-workflow attributes on a span.
//
// Example:
//
//	SetApprovalAttributes(span, "appr-9", "approved")
func SetApprovalAttributes(span trace.Span, approvalID, status string) {
	span.SetAttributes(
		attribute.String(AttrApprovalID, approvalID),
		attribute.String(AttrApprovalStatus, status),
	)
}

// SetKillSwitchAttributes sets kill-switch attributes on a span.
//
// Example:
//
//	SetKillSwitchAttributes(span, "global")
func SetKillSwitchAttributes(span trace.Span, scope string) {
	span.SetAttributes(attribute.String(AttrKillSwitchScope, scope))
}

// SetCacheAttributes sets cache-related attributes on a span.
//
// Example:
//
//	SetCacheAttributes(span, true, "policy_resolution")
func SetCacheAttributes(span trace.Span, hit bool, cacheName string) {
	span.SetAttributes(
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "storage_unavailable")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// SetTeamAttribute sets the team attribute on a span.
//
// Example:
//
//	SetTeamAttribute(span, "platform-security")
func SetTeamAttribute(span trace.Span, team string) {
	if team != "" {
		span.SetAttributes(attribute.String(AttrTeam, team))
	}
}

// SetSessionAttribute sets the session attribute on a span.
//
// Example:
//
//	SetSessionAttribute(span, "session-123")
func SetSessionAttribute(span trace.Span, session string) {
	if session != "" {
		span.SetAttributes(attribute.String(AttrSession, session))
	}
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "policy_evaluated",
//	    attribute.String("rule_id", "deny-prod-db-writes"),
//	    attribute.String("action", "deny"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper for errors.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithAgent adds agent and tool attributes.
func (ab *AttributeBuilder) WithAgent(agentID, tool string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrTool, tool),
	)
	return ab
}

// WithRequest adds request-related attributes.
func (ab *AttributeBuilder) WithRequest(requestID, user string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	if user != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrUser, user))
	}
	return ab
}

// WithDecision adds decision outcome attributes.
func (ab *AttributeBuilder) WithDecision(action, reason string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrDecisionAction, action))
	if reason != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrDecisionReason, reason))
	}
	return ab
}

// WithPolicy adds policy attributes.
func (ab *AttributeBuilder) WithPolicy(policyID, ruleID, action string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrPolicyID, policyID),
		attribute.String(AttrPolicyRule, ruleID),
		attribute.String(AttrPolicyAction, action),
	)
	return ab
}

// WithCache adds cache attributes.
func (ab *AttributeBuilder) WithCache(hit bool, cacheName string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}

package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// AgentIDKey is the context key for the agent a decision is being
	// evaluated for.
	AgentIDKey contextKey = "agent_id"

	// ToolKey is the context key for the tool name being invoked.
	ToolKey contextKey = "tool"

	// TenantIDKey is the context key for the tenant scope (spec.md §4.8's
	// forTenant).
	TenantIDKey contextKey = "tenant_id"

	// PolicyNameKey is the context key for the policy resolved for a
	// decision.
	PolicyNameKey contextKey = "policy_name"

	// SessionKey is the context key for session identifiers.
	SessionKey contextKey = "session"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"

	// UserKey is the context key for the acting user.
	UserKey contextKey = "user"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAgentID adds the evaluated agent's ID to the context.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, AgentIDKey, agentID)
}

// GetAgentID retrieves the agent ID from the context.
func GetAgentID(ctx context.Context) string {
	if agentID, ok := ctx.Value(AgentIDKey).(string); ok {
		return agentID
	}
	return ""
}

// WithTool adds the invoked tool name to the context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ToolKey, tool)
}

// GetTool retrieves the tool name from the context.
func GetTool(ctx context.Context) string {
	if tool, ok := ctx.Value(ToolKey).(string); ok {
		return tool
	}
	return ""
}

// WithTenantID adds a tenant scope identifier to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID retrieves the tenant scope identifier from the context.
func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}

// WithPolicyName adds the resolved policy's name to the context.
func WithPolicyName(ctx context.Context, policyName string) context.Context {
	return context.WithValue(ctx, PolicyNameKey, policyName)
}

// GetPolicyName retrieves the resolved policy's name from the context.
func GetPolicyName(ctx context.Context) string {
	if policyName, ok := ctx.Value(PolicyNameKey).(string); ok {
		return policyName
	}
	return ""
}

// WithSession adds a session identifier to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession retrieves the session identifier from the context.
func GetSession(ctx context.Context) string {
	if session, ok := ctx.Value(SessionKey).(string); ok {
		return session
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// WithUser adds the acting user to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the acting user from the context.
func GetUser(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if agentID := GetAgentID(ctx); agentID != "" {
		fields = append(fields, "agent_id", agentID)
	}
	if tool := GetTool(ctx); tool != "" {
		fields = append(fields, "tool", tool)
	}
	if tenantID := GetTenantID(ctx); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}
	if policyName := GetPolicyName(ctx); policyName != "" {
		fields = append(fields, "policy_name", policyName)
	}
	if session := GetSession(ctx); session != "" {
		fields = append(fields, "session", session)
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		fields = append(fields, "span_id", spanID)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}

// Package telemetry provides comprehensive observability for the Sentinel
// governance core.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// OpenTelemetry distributed tracing, and health check endpoints, at low
// overhead (<50µs per decision), and it carries no decision logic of its
// own. Within this module only the serve command constructs it, to expose
// health, readiness, and metrics endpoints; the orchestrator records no
// metrics, logs, or spans through it.
//
// # Components
//
//   - logging: Structured logging with PII/secret redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Health check endpoints
//
// # Usage
//
//	// Initialize telemetry
//	cfg := config.GetConfig()
//	tel, err := telemetry.New(&cfg.Telemetry, "v1.0.0", "abc123", "2025-11-20")
//	if err != nil {
//	    return err
//	}
//
//	// Get logger
//	logger := tel.Logger()
//	logger.Info("decision evaluated", "agent_id", "agent-42", "tool", "file_write")
//
//	// Record metrics
//	tel.Metrics().RecordDecision("agent-42", "file_write", "deny", time.Millisecond)
//
//	// Create span
//	ctx, span := tel.Tracer().Start(ctx, "orchestrator.evaluate")
//	defer span.End()
//
// # Performance
//
// The telemetry package is designed for minimal overhead:
//
//   - Logging: <10µs when enabled, <1µs when disabled
//   - Metrics: <50µs per metric update
//   - Tracing: <100µs per span
//   - Total overhead: <0.5% of evaluate's time
//
// # PII Protection
//
// By default, all PII and secrets are automatically redacted from logs:
//
//   - Bearer tokens / API keys: sk-abc123 → sk-***
//   - Emails: user@example.com → u***@example.com
//   - SSN: 123-45-6789 → ***-**-****
//   - IP addresses: 192.168.1.1 → 192.*.*.*
//
// Custom redaction patterns can be configured.
package telemetry

// Package tracing provides OpenTelemetry distributed tracing for the
// Sentinel governance core.
//
// # Overview
//
// The tracing package implements W3C Trace Context propagation, span
// creation, and trace export to an OTLP collector, with minimal overhead
// (<100µs per span). The orchestrator does not start spans itself; spans
// for the steps of an evaluate call (kill-switch check, policy
// resolution, decision, event emission, audit write) exist only where a
// caller wraps those steps with Tracer.Start. It composes with, but is independent of, pkg/trace's W3C
// identifier carried on every audit record and event envelope: this
// package is the OpenTelemetry span tree an operator observes; pkg/trace
// is the identifier that stitches it to the durable record.
//
// # Distributed Tracing
//
// Distributed tracing tracks one governance decision as it flows through
// the orchestrator's collaborators, creating a hierarchy of spans that
// represent each step. Each span records:
//   - Operation name and duration
//   - Attributes (key-value pairs, see attributes.go)
//   - Events (timestamped logs within the span)
//   - Trace context (trace ID, span ID, sampling decision)
//
// # Trace Context Propagation
//
// The package implements W3C Trace Context (https://www.w3.org/TR/trace-context/)
// through Extract, Inject, and HTTPMiddleware. The serve command's health
// and metrics handlers are not wrapped with HTTPMiddleware.
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces (tracing disabled)
//   - ratio: Sample a percentage of traces (production)
//
// # Usage
//
//	// Initialize tracer
//	cfg := &config.TracingConfig{
//	    Enabled:     true,
//	    Sampler:     "ratio",
//	    SampleRatio: 0.1,
//	    Exporter:    "otlp",
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "sentinel",
//	}
//	tracer, err := tracing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	// Create span
//	ctx, span := tracer.Start(ctx, "orchestrator.evaluate")
//	defer span.End()
//
//	// Add attributes
//	SetAgentAttributes(span, "agent-42", "file_write")
//	SetDecisionAttributes(span, "deny", "matched rule deny-etc-writes")
//
// # Span Hierarchy
//
// A caller that wraps each step of one evaluate call in a span gets this
// hierarchy (the orchestrator does not create these spans itself):
//
//	orchestrator.evaluate (2ms)
//	├── killswitch.check (10µs)
//	├── policy.resolve (200µs)
//	├── policy.evaluate (50µs)
//	├── eventbus.emit (5µs, dispatch deferred)
//	└── audit.write (1.7ms)
//
// # Trace Exporters
//
// One trace exporter is supported in this core: OTLP over gRPC.
//
//	telemetry:
//	  tracing:
//	    exporter: otlp
//	    endpoint: localhost:4317
//	    otlp:
//	      insecure: true
//	      timeout: 10s
//
// # Attribute Helpers
//
// Common attributes are set using helper functions in attributes.go:
//
//	tracing.SetAgentAttributes(span, agentID, tool)
//	tracing.SetDecisionAttributes(span, "deny", reason)
//	tracing.SetPolicyAttributes(span, policyName, ruleName, "deny")
//	tracing.SetApprovalAttributes(span, approvalID, "pending")
//	tracing.SetKillSwitchAttributes(span, "global")
//	tracing.SetErrorAttributes(span, err, "storage_unavailable")
package tracing

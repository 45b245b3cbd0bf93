package telemetry

import (
	"context"
	"testing"
	"time"

	"wardenhq/sentinel/pkg/config"
)

func testConfig() *config.TelemetryConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return &cfg.Telemetry
}

func TestNew(t *testing.T) {
	tel, err := New(testConfig(), "1.0.0", "abc123", "2026-01-01")
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if tel.Logger() == nil {
		t.Error("Logger() = nil")
	}
	if tel.Metrics() == nil {
		t.Error("Metrics() = nil")
	}
	if tel.Tracer() == nil {
		t.Error("Tracer() = nil")
	}
	if tel.Health() == nil {
		t.Error("Health() = nil")
	}
	if tel.Registry() == nil {
		t.Error("Registry() = nil")
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}

func TestNew_TracingDisabledIsNoop(t *testing.T) {
	cfg := testConfig()
	cfg.Tracing.Enabled = false

	tel, err := New(cfg, "1.0.0", "abc123", "2026-01-01")
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if tel.Tracer().Enabled() {
		t.Error("Tracer().Enabled() = true, want false")
	}

	ctx, span := tel.Tracer().Start(context.Background(), "test.span")
	span.End()
	if ctx == nil {
		t.Error("Start() returned nil context")
	}
}

func TestTelemetry_HealthIntegration(t *testing.T) {
	tel, err := New(testConfig(), "1.0.0", "abc123", "2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	defer tel.Shutdown(context.Background())

	tel.Health().RegisterCheck("store", func(ctx context.Context) error { return nil })

	status := tel.Health().CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("CheckReadiness().Status = %q, want %q", status.Status, "ready")
	}
}

func TestNew_RecordsDecisionMetric(t *testing.T) {
	tel, err := New(testConfig(), "1.0.0", "abc123", "2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	defer tel.Shutdown(context.Background())

	tel.Metrics().RecordDecision("agent-1", "file_read", "allow", time.Millisecond)
}

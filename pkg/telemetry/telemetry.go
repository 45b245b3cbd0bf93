package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wardenhq/sentinel/pkg/config"
	"wardenhq/sentinel/pkg/telemetry/health"
	"wardenhq/sentinel/pkg/telemetry/logging"
	"wardenhq/sentinel/pkg/telemetry/metrics"
	"wardenhq/sentinel/pkg/telemetry/tracing"
)

// Telemetry aggregates the four observability surfaces behind one
// construction call, so a command only has to carry one value through its
// dependency graph instead of four.
type Telemetry struct {
	logger   *logging.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	health   *health.Checker
	registry *prometheus.Registry
}

// New builds every observability surface from cfg. New does not read
// version, commit, or buildDate; the tracer takes its service.version
// resource attribute from the module's build info (runtime/debug).
func New(cfg *config.TelemetryConfig, version, commit, buildDate string) (*Telemetry, error) {
	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		RedactPII:  true,
		BufferSize: 10000,
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&cfg.Metrics, registry)

	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return nil, err
	}

	checker := health.New(5 * time.Second)

	return &Telemetry{
		logger:   logger,
		metrics:  collector,
		tracer:   tracer,
		health:   checker,
		registry: registry,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *logging.Logger { return t.logger }

// Metrics returns the Prometheus metric collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the OpenTelemetry tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the liveness/readiness checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Registry returns the Prometheus registry metrics are registered against,
// for wiring an HTTP /metrics handler.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// Shutdown flushes the tracer and stops the logger's background goroutine. It
// should run once, at process exit.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.tracer.Shutdown(ctx); err != nil {
		return err
	}
	t.logger.Shutdown()
	return nil
}
